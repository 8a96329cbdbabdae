package main

import (
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/therealutkarshpriyadarshi/tasktracker/pkg/models"
)

type taskList struct {
	Count    int            `json:"count"`
	Next     *string        `json:"next"`
	Previous *string        `json:"previous"`
	Results  []*models.Task `json:"results"`
}

func paginate(c *gin.Context, page *models.TaskPage) taskList {
	out := taskList{Count: page.Total, Results: page.Items}
	if out.Results == nil {
		out.Results = []*models.Task{}
	}
	if page.HasNext() {
		next := pageURL(c, page.Page+1)
		out.Next = &next
	}
	if page.HasPrevious() {
		prev := pageURL(c, page.Page-1)
		out.Previous = &prev
	}
	return out
}

// pageURL builds the absolute URL of another page of the current request,
// keeping every other query parameter. Page 1 is linked without a page param.
func pageURL(c *gin.Context, number int) string {
	u := url.URL{
		Scheme: "http",
		Host:   c.Request.Host,
		Path:   c.Request.URL.Path,
	}
	if c.Request.TLS != nil || c.GetHeader("X-Forwarded-Proto") == "https" {
		u.Scheme = "https"
	}

	q := c.Request.URL.Query()
	if number <= 1 {
		q.Del("page")
	} else {
		q.Set("page", strconv.Itoa(number))
	}
	u.RawQuery = q.Encode()
	return u.String()
}
