package main

import (
	"fmt"
	"io"
	"strings"

	"employee-management/internal/models"
	"employee-management/internal/pipeline"

	"github.com/olekukonko/tablewriter"
)

var listHeader = []string{"ID", "Name", "Email", "Mobile", "Designation", "Gender", "Course", "Created", "Image"}

func employeeRow(e models.Employee) []string {
	return []string{
		e.ID,
		e.Name,
		e.Email,
		e.MobileNo,
		string(e.Designation),
		string(e.Gender),
		strings.Join(e.Course, ", "),
		e.CreatedDateText(),
		e.Image,
	}
}

func renderView(w io.Writer, v pipeline.View) {
	if v.Total == 0 {
		fmt.Fprintln(w, "No employees found")
		return
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader(listHeader)
	table.SetAutoWrapText(false)
	for _, e := range v.Items {
		table.Append(employeeRow(e))
	}
	table.Render()

	fmt.Fprintf(w, "Page %d of %d (%d employees)%s\n", v.Page, v.PageCount, v.Total, navHint(v))
}

func navHint(v pipeline.View) string {
	var hints []string
	if v.HasPrev {
		hints = append(hints, fmt.Sprintf("--page %d for previous", v.Page-1))
	}
	if v.HasNext {
		hints = append(hints, fmt.Sprintf("--page %d for next", v.Page+1))
	}
	if len(hints) == 0 {
		return ""
	}
	return "  [" + strings.Join(hints, ", ") + "]"
}

func renderEmployee(w io.Writer, e models.Employee) {
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	row := employeeRow(e)
	for i, h := range listHeader {
		table.Append([]string{h, row[i]})
	}
	table.Render()
}
