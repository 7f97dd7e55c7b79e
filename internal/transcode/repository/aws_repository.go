package repository

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/streamforge/transcoder/internal/config"
	"github.com/streamforge/transcoder/internal/models"
	"github.com/streamforge/transcoder/internal/transcode"
)

type awsRepository struct {
	client *s3.Client
	bucket string
}

func NewAwsRepository(client *s3.Client, cfg *config.Config) transcode.AWSRepository {
	return &awsRepository{
		client: client,
		bucket: cfg.S3.OutputBucket,
	}
}

func (a *awsRepository) PutOutput(ctx context.Context, jobID, localPath string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to open output file: %w", err)
	}
	defer f.Close()

	key := jobID + "/" + filepath.Base(localPath)
	_, err = a.client.PutObject(
		ctx,
		&s3.PutObjectInput{
			Bucket: &a.bucket,
			Key:    &key,
			Body:   f,
		},
	)
	if err != nil {
		return "", fmt.Errorf("failed to upload output file: %w", err)
	}
	return key, nil
}

// ArchiveOutputs copies every rendition of a finished job into the output
// bucket under <job_id>/.
func (a *awsRepository) ArchiveOutputs(ctx context.Context, job *models.TranscodeJob) error {
	for _, out := range job.OutputFiles {
		if _, err := a.PutOutput(ctx, job.JobID, out.Location); err != nil {
			return err
		}
	}
	return nil
}

func (a *awsRepository) RemoveOutputs(ctx context.Context, jobID string) error {
	prefix := jobID + "/"
	res, err := a.client.ListObjectsV2(
		ctx,
		&s3.ListObjectsV2Input{
			Bucket: &a.bucket,
			Prefix: &prefix,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to list output objects: %w", err)
	}
	for _, obj := range res.Contents {
		if _, err := a.client.DeleteObject(
			ctx,
			&s3.DeleteObjectInput{
				Bucket: &a.bucket,
				Key:    obj.Key,
			},
		); err != nil {
			return fmt.Errorf("failed to delete output object: %w", err)
		}
	}
	return nil
}
