package api

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pbaille/blog/internal/domain"
)

func (s *Server) alertHeaders(w http.ResponseWriter, message, param string) {
	w.Header().Set("X-"+s.appName+"-alert", message)
	w.Header().Set("X-"+s.appName+"-params", url.QueryEscape(param))
}

func (s *Server) creationAlert(w http.ResponseWriter, id int64) {
	s.alertHeaders(w, fmt.Sprintf("A new %s is created with identifier %d", domain.EntityName, id), strconv.FormatInt(id, 10))
}

func (s *Server) updateAlert(w http.ResponseWriter, id int64) {
	s.alertHeaders(w, fmt.Sprintf("A %s is updated with identifier %d", domain.EntityName, id), strconv.FormatInt(id, 10))
}

func (s *Server) deletionAlert(w http.ResponseWriter, id int64) {
	s.alertHeaders(w, fmt.Sprintf("A %s is deleted with identifier %d", domain.EntityName, id), strconv.FormatInt(id, 10))
}

func (s *Server) failureAlert(w http.ResponseWriter, alert *domain.AlertError) {
	w.Header().Set("X-"+s.appName+"-error", "error."+alert.ErrorKey)
	w.Header().Set("X-"+s.appName+"-params", alert.EntityName)
}

// paginationHeaders sets X-Total-Count and a Link header with next, prev,
// last and first relations built from the request URL
func paginationHeaders(w http.ResponseWriter, r *http.Request, page *domain.Page) {
	w.Header().Set("X-Total-Count", strconv.Itoa(page.Total))

	number := page.Request.Page
	size := page.Request.Size
	totalPages := page.TotalPages()

	var links []string
	if number < totalPages-1 {
		links = append(links, pageLink(r.URL, number+1, size, "next"))
	}
	if number > 0 {
		links = append(links, pageLink(r.URL, number-1, size, "prev"))
	}
	last := 0
	if totalPages > 0 {
		last = totalPages - 1
	}
	links = append(links, pageLink(r.URL, last, size, "last"))
	links = append(links, pageLink(r.URL, 0, size, "first"))

	w.Header().Set("Link", strings.Join(links, ","))
}

func pageLink(u *url.URL, page, size int, rel string) string {
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	q.Set("size", strconv.Itoa(size))
	link := url.URL{Path: u.Path, RawQuery: q.Encode()}
	uri := strings.NewReplacer(",", "%2C", ";", "%3B").Replace(link.String())
	return fmt.Sprintf(`<%s>; rel="%s"`, uri, rel)
}
