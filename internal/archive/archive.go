/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package archive stores batch fee run summaries in S3-compatible object storage.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"token-wallet-go/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

const defaultPrefix = "wallet-fee-runs"

type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// SummaryArchiver writes one JSON object per batch run
type SummaryArchiver struct {
	client objectPutter
	bucket string
	prefix string
}

// NewSummaryArchiver builds an S3 client from the archive settings. Static
// credentials are used when both keys are set; otherwise the default chain applies.
func NewSummaryArchiver(ctx context.Context, cfg models.ArchiveConfig) (*SummaryArchiver, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("archive bucket is required")
	}

	opts := []func(*config.LoadOptions) error{}
	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	zap.L().Info("Summary archive initialized",
		zap.String("bucket", cfg.Bucket),
		zap.String("endpoint", cfg.Endpoint))

	return newSummaryArchiver(client, cfg.Bucket, cfg.Prefix), nil
}

func newSummaryArchiver(client objectPutter, bucket, prefix string) *SummaryArchiver {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &SummaryArchiver{client: client, bucket: bucket, prefix: prefix}
}

// ObjectKey returns <prefix>/yyyy/mm/dd/<run id>.json for the run start date
func (a *SummaryArchiver) ObjectKey(summary *models.BatchSummary) string {
	return path.Join(a.prefix, summary.StartedAt.UTC().Format("2006/01/02"), summary.RunId+".json")
}

// Archive uploads the summary and returns its object key
func (a *SummaryArchiver) Archive(ctx context.Context, summary *models.BatchSummary) (string, error) {
	body, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode batch summary: %w", err)
	}

	key := a.ObjectKey(summary)
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload batch summary %s: %w", summary.RunId, err)
	}

	zap.L().Info("Batch summary archived",
		zap.String("run_id", summary.RunId),
		zap.String("bucket", a.bucket),
		zap.String("key", key))
	return key, nil
}

// Handle archives a summary and only logs failures, for use as a scheduler hook
func (a *SummaryArchiver) Handle(ctx context.Context, summary *models.BatchSummary) {
	if _, err := a.Archive(ctx, summary); err != nil {
		zap.L().Error("Failed to archive batch summary", zap.String("run_id", summary.RunId), zap.Error(err))
	}
}
