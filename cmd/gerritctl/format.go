package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"

	"github.com/ericfisherdev/gerritwatch/internal/domain/model"
)

var (
	votePositive = color.New(color.FgGreen, color.Bold)
	voteNegative = color.New(color.FgRed, color.Bold)
	statusMerged = color.New(color.FgMagenta)
	statusFailed = color.New(color.FgRed)
	faint        = color.New(color.Faint)
)

func formatVote(v int) string {
	switch {
	case v > 0:
		return votePositive.Sprint("+" + strconv.Itoa(v))
	case v < 0:
		return voteNegative.Sprint(strconv.Itoa(v))
	default:
		return faint.Sprint("0")
	}
}

func formatStatus(status string) string {
	switch status {
	case model.ChangeStatusMerged:
		return statusMerged.Sprint(status)
	case model.ChangeStatusAbandoned:
		return statusFailed.Sprint(status)
	default:
		return status
	}
}

// printChange writes one line: id, status, Verified, Code-Review, subject.
func printChange(w io.Writer, c model.ChangeStatus) {
	fmt.Fprintf(w, "%-10s %-9s V:%s CR:%s  %s\n",
		c.ID, formatStatus(c.Status), formatVote(c.Verified), formatVote(c.CodeReview), c.Subject)
}

// printResult writes one line per query result, whatever its kind.
func printResult(w io.Writer, changeID string, res model.QueryResult) {
	switch res.Kind {
	case model.ResultOK:
		printChange(w, *res.Change)
	case model.ResultEmpty:
		note := "no data"
		if res.StatusCode != 0 {
			note = fmt.Sprintf("no data (HTTP %d)", res.StatusCode)
		}
		fmt.Fprintf(w, "%-10s %s\n", changeID, faint.Sprint(note))
	default:
		fmt.Fprintf(w, "%-10s %s\n", changeID, statusFailed.Sprint("query failed"))
	}
}
