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

package common

import (
	"fmt"
	"strings"

	"token-wallet-go/internal/models"
)

// DefaultWidth is the console report width
const DefaultWidth = 80

func PrintSeparator(char string, width int) {
	fmt.Println(strings.Repeat(char, width))
}

// PrintHeader prints a formatted header with title and separators
func PrintHeader(title string, width int) {
	fmt.Println("\n" + strings.Repeat("=", width))
	fmt.Println(title)
	PrintSeparator("=", width)
}

// PrintFooter prints a formatted footer with message and separators
func PrintFooter(message string, width int) {
	fmt.Println("\n" + strings.Repeat("=", width))
	fmt.Println(message)
	fmt.Println(strings.Repeat("=", width) + "\n")
}

// BoxPrefix returns the box-drawing prefix for list items
func BoxPrefix(isLast bool) string {
	if isLast {
		return "└  "
	}
	return "├  "
}

// BoxDetailPrefix returns the prefix for detail lines under list items
func BoxDetailPrefix(isLast bool) string {
	if isLast {
		return "   "
	}
	return "│  "
}

// FormatBatchSummary renders a batch run as console lines, one per user
// result after the totals line.
func FormatBatchSummary(summary *models.BatchSummary) []string {
	lines := []string{
		fmt.Sprintf("Run %s: total=%d charged=%d waived=%d locked=%d skipped=%d errors=%d",
			summary.RunId, summary.Total, summary.Charged, summary.Waived,
			summary.Locked, summary.Skipped, summary.Errors),
	}
	for i, d := range summary.Details {
		line := BoxPrefix(i == len(summary.Details)-1) + d.UserId + " " + string(d.Status)
		if d.Message != "" {
			line += ": " + d.Message
		}
		lines = append(lines, line)
	}
	return lines
}

func PrintBatchSummary(summary *models.BatchSummary, width int) {
	PrintHeader("Wallet Fee Run", width)
	for _, line := range FormatBatchSummary(summary) {
		fmt.Println(line)
	}
	PrintFooter(fmt.Sprintf("Finished at %s", summary.FinishedAt.UTC().Format("2006-01-02 15:04:05")), width)
}
