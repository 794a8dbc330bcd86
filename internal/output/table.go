package output

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/tuan28064/Hono-demo/internal/core"
)

func renderTable(l Listing, markdown bool) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	// Footers carry counts like "3 users"; keep their case.
	t.Style().Format.Footer = text.FormatDefault
	t.AppendHeader(table.Row(l.Header()))
	for _, row := range l.Rows() {
		t.AppendRow(table.Row(row))
	}
	if footer := l.Footer(); len(footer) > 0 {
		t.AppendFooter(table.Row(footer))
	}

	if markdown {
		return t.RenderMarkdown()
	}
	return t.Render()
}

// Users lists user records.
type Users []core.User

func (u Users) Header() []any { return []any{"ID", "Name", "Email", "Created"} }

func (u Users) Rows() [][]any {
	rows := make([][]any, 0, len(u))
	for _, user := range u {
		created := ""
		if user.CreatedAt != nil {
			created = user.CreatedAt.UTC().Format(time.RFC3339)
		}
		rows = append(rows, []any{user.ID, user.Name, user.Email, created})
	}
	return rows
}

func (u Users) Footer() []any { return []any{"", "", fmt.Sprintf("%d users", len(u)), ""} }

func (u Users) Raw() any { return []core.User(u) }

// Route is one registered method/pattern pair.
type Route struct {
	Method      string `json:"method"`
	Pattern     string `json:"pattern"`
	Middlewares int    `json:"middlewares"`
}

// Routes lists the HTTP route table.
type Routes []Route

func (r Routes) Header() []any { return []any{"Method", "Pattern", "Middlewares"} }

func (r Routes) Rows() [][]any {
	rows := make([][]any, 0, len(r))
	for _, route := range r {
		rows = append(rows, []any{route.Method, route.Pattern, route.Middlewares})
	}
	return rows
}

func (r Routes) Footer() []any { return []any{"", fmt.Sprintf("%d routes", len(r)), ""} }

func (r Routes) Raw() any { return []Route(r) }
