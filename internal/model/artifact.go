package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DownloadLink is what the UI needs to offer one generated artifact:
// a cache-busted URL and a suggested filename derived from the job id.
type DownloadLink struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
}

// DownloadLinks decorates the job's artifact URLs with a cache-busting query
// parameter so a regenerated file is never served from a stale browser cache.
func (j *Job) DownloadLinks(now time.Time) []DownloadLink {
	short := j.ID
	if len(short) > 8 {
		short = short[:8]
	}
	v := strconv.FormatInt(now.UnixMilli(), 10)

	var links []DownloadLink
	if j.Artifacts.WordURL != "" {
		links = append(links, DownloadLink{
			URL:      appendQuery(j.Artifacts.WordURL, "v", v),
			Filename: fmt.Sprintf("proposal-%s.docx", short),
		})
	}
	if j.Artifacts.PDFURL != "" {
		links = append(links, DownloadLink{
			URL:      appendQuery(j.Artifacts.PDFURL, "v", v),
			Filename: fmt.Sprintf("proposal-%s.pdf", short),
		})
	}
	return links
}

func appendQuery(u, key, value string) string {
	sep := "?"
	if strings.Contains(u, "?") {
		sep = "&"
	}
	return u + sep + key + "=" + value
}
