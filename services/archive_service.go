package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	appConfig "github.com/maribel-ponce/comanda-api/config"
	"github.com/maribel-ponce/comanda-api/models"
)

// ArchiveInterface defines the interface for completed-ticket archival.
// The reporting pipeline consumes these records; the order core only writes.
type ArchiveInterface interface {
	ArchiveTicket(order *models.Order) (string, error)
}

// ArchiveService uploads completed tickets to S3
type ArchiveService struct {
	client *s3.Client
	bucket string
}

var archiveServiceInstance ArchiveInterface

// InitArchiveService initializes the archive service with AWS credentials
func InitArchiveService() (ArchiveInterface, error) {
	cfg := appConfig.GetConfig()

	awsConfig, err := config.LoadDefaultConfig(context.TODO(),
		config.WithRegion(cfg.AWSRegion),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AWSAccessKeyID,
			cfg.AWSSecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	archiveServiceInstance = &ArchiveService{
		client: s3.NewFromConfig(awsConfig),
		bucket: cfg.AWSS3Bucket,
	}

	return archiveServiceInstance, nil
}

// GetArchiveService returns the initialized archive service instance
func GetArchiveService() ArchiveInterface {
	return archiveServiceInstance
}

// SetArchiveService sets the archive service instance (primarily for testing)
func SetArchiveService(service ArchiveInterface) {
	archiveServiceInstance = service
}

// ArchiveTicket uploads the full ticket JSON (order, items, modifiers,
// payment) to S3 and returns the object key.
func (s *ArchiveService) ArchiveTicket(order *models.Order) (string, error) {
	body, err := json.Marshal(order)
	if err != nil {
		return "", fmt.Errorf("failed to marshal ticket: %w", err)
	}

	key := fmt.Sprintf("tickets/%d/%d.json", order.RestaurantID, order.ID)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload ticket to S3: %w", err)
	}

	return key, nil
}
