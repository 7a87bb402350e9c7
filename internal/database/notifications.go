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

package database

import (
	"context"
	"database/sql"
	"fmt"

	"token-wallet-go/internal/models"

	"go.uber.org/zap"
)

func (s *Service) CreateNotification(ctx context.Context, notification models.Notification) error {
	if notification.Id == "" {
		notification.Id = newId()
	}
	notification.CreatedAt = movementTime(notification.CreatedAt)

	_, err := s.db.ExecContext(ctx, queryInsertNotification,
		notification.Id, notification.UserId, notification.Title, notification.Message,
		notification.Type, notification.CreatedAt)
	if err != nil {
		return fmt.Errorf("unable to insert notification: %w", err)
	}

	zap.L().Debug("Notification stored",
		zap.String("user_id", notification.UserId),
		zap.String("type", string(notification.Type)),
		zap.String("title", notification.Title))
	return nil
}

func (s *Service) ListNotifications(ctx context.Context, userId string) ([]models.Notification, error) {
	rows, err := s.db.QueryContext(ctx, s.dialect.inInsertOrder(queryListNotifications), userId)
	if err != nil {
		return nil, fmt.Errorf("unable to query notifications: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var notifications []models.Notification
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.Id, &n.UserId, &n.Title, &n.Message, &n.Type, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("unable to scan notification row: %w", err)
		}
		n.CreatedAt = n.CreatedAt.UTC()
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notification rows: %w", err)
	}
	return notifications, nil
}
