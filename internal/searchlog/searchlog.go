// Package searchlog appends a one line audit record for every search.
package searchlog

import (
	"fmt"
	"os"
	"partsfinder-backend/internal/components/chrono"
	"partsfinder-backend/internal/components/telemetry"
	"partsfinder-backend/pkg/textutil"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const report_searchlog_write = "searchlog.write"

const DefaultPath = "logs/search.log"

// Entry is one search.
type Entry struct {
	// User is empty for anonymous searches.
	User               string
	Query              string
	MarketplaceURL     string
	ClassifiedsURL     string
	MarketplaceResults int
	ClassifiedsResults int
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

// Format renders the entry as a single line without the trailing newline.
func (e Entry) Format(at time.Time) string {
	return strings.Join([]string{
		fmt.Sprintf("[%s]", at.UTC().Format("2006-01-02T15:04:05.000Z07:00")),
		fmt.Sprintf("user=%s", orDefault(textutil.CleanText(e.User), "anonymous")),
		fmt.Sprintf("query=%q", e.Query),
		fmt.Sprintf("ebay_url=%s", orDefault(e.MarketplaceURL, "N/A")),
		fmt.Sprintf("craigslist_url=%s", orDefault(e.ClassifiedsURL, "N/A")),
		fmt.Sprintf("ebay_results=%d", e.MarketplaceResults),
		fmt.Sprintf("craigslist_results=%d", e.ClassifiedsResults),
	}, " | ")
}

// Logger appends entries to a file. Failures are reported and never returned.
type Logger struct {
	path  string
	time  chrono.API
	tel   telemetry.API
	mutex sync.Mutex
}

func New(path string, time chrono.API, tel telemetry.API) *Logger {
	return &Logger{
		path: orDefault(path, DefaultPath),
		time: time,
		tel:  telemetry.NewScopedAPI("searchlog", tel),
	}
}

func (l *Logger) Log(entry Entry) {
	line := entry.Format(l.time.Now()) + "\n"

	l.mutex.Lock()
	defer l.mutex.Unlock()

	err := os.MkdirAll(filepath.Dir(l.path), 0755)
	if err != nil {
		l.tel.ReportBroken(report_searchlog_write, err, l.path)
		return
	}
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		l.tel.ReportBroken(report_searchlog_write, err, l.path)
		return
	}
	defer f.Close()

	_, err = f.WriteString(line)
	if err != nil {
		l.tel.ReportBroken(report_searchlog_write, err, l.path)
	}
}
