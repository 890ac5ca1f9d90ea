// Package spreadsheet builds the xlsx import templates offered to admins,
// managers and captains.
package spreadsheet

import (
	"bytes"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// ContentType is the MIME type of generated workbooks.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Rows covered by drop-down and range validation below the header.
const validatedRows = 1000

type Kind string

const (
	KindAdmin   Kind = "admin"
	KindManager Kind = "manager"
	KindCaptain Kind = "captain"
)

var (
	roleOptions   = []string{"PLAYER", "CAPTAIN", "MANAGER", "SUPERADMIN"}
	statusOptions = []string{"PENDING", "APPROVED"}
	genderOptions = []string{"MALE", "FEMALE", "OTHER"}
)

type column struct {
	header  string
	width   float64
	options []string
	level   bool
}

type sheet struct {
	name    string
	columns []column
	example []any
}

type Template struct {
	Kind         Kind
	Filename     string
	instructions []string
	sheets       []sheet
}

var templates = map[Kind]Template{
	KindAdmin: {
		Kind:     KindAdmin,
		Filename: "user-import-template.xlsx",
		instructions: []string{
			"One row per user. Email and Name are required.",
			"Phone numbers may be written in any common format; they are stored in E.164.",
			"Role defaults to PLAYER and Status to PENDING when left blank.",
			"Level is a whole number from 1 to 10.",
		},
		sheets: []sheet{{
			name: "Users",
			columns: []column{
				{header: "Email", width: 32},
				{header: "Name", width: 24},
				{header: "Phone", width: 18},
				{header: "Role", width: 14, options: roleOptions},
				{header: "Status", width: 14, options: statusOptions},
				{header: "Gender", width: 12, options: genderOptions},
				{header: "Level", width: 10, level: true},
			},
			example: []any{"jane@example.com", "Jane Doe", "+1 555 010 0000", "PLAYER", "APPROVED", "FEMALE", 5},
		}},
	},
	KindManager: {
		Kind:     KindManager,
		Filename: "league-template.xlsx",
		instructions: []string{
			"List leagues on the Leagues sheet and their teams on the Teams sheet.",
			"Team rows refer to a league by its exact name.",
			"Captains must already have an account; use the email they signed up with.",
		},
		sheets: []sheet{
			{
				name: "Leagues",
				columns: []column{
					{header: "League Name", width: 28},
					{header: "Gender", width: 12, options: genderOptions},
					{header: "Level", width: 10, level: true},
				},
				example: []any{"Spring Open", "OTHER", 4},
			},
			{
				name: "Teams",
				columns: []column{
					{header: "Team Name", width: 28},
					{header: "League Name", width: 28},
					{header: "Captain Email", width: 32},
				},
				example: []any{"Net Results", "Spring Open", "captain@example.com"},
			},
		},
	},
	KindCaptain: {
		Kind:     KindCaptain,
		Filename: "roster-template.xlsx",
		instructions: []string{
			"One row per player you want to invite.",
			"Players receive an invitation they must accept before joining the team.",
		},
		sheets: []sheet{{
			name: "Roster",
			columns: []column{
				{header: "Player Email", width: 32},
				{header: "Player Name", width: 24},
				{header: "Phone", width: 18},
				{header: "Gender", width: 12, options: genderOptions},
				{header: "Level", width: 10, level: true},
			},
			example: []any{"player@example.com", "Sam Lee", "555-010-0001", "MALE", 6},
		}},
	},
}

// ForKind returns the template registered for kind.
func ForKind(kind Kind) (Template, bool) {
	t, ok := templates[kind]
	return t, ok
}

// SheetNames lists the data sheets in workbook order, followed by the
// instructions sheet.
func (t Template) SheetNames() []string {
	names := make([]string, 0, len(t.sheets)+1)
	for _, s := range t.sheets {
		names = append(names, s.name)
	}
	return append(names, instructionsSheet)
}

const instructionsSheet = "Instructions"

// Build renders the workbook into memory.
func (t Template) Build() (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#1F4E78"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	for i, s := range t.sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", s.name); err != nil {
				return nil, fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(s.name); err != nil {
			return nil, fmt.Errorf("create sheet %s: %w", s.name, err)
		}
		if err := writeSheet(f, s, headerStyle); err != nil {
			return nil, fmt.Errorf("sheet %s: %w", s.name, err)
		}
	}

	if err := writeInstructions(f, t.instructions); err != nil {
		return nil, err
	}
	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf, nil
}

// Write renders the workbook to w.
func (t Template) Write(w io.Writer) error {
	buf, err := t.Build()
	if err != nil {
		return err
	}
	_, err = buf.WriteTo(w)
	return err
}

func writeSheet(f *excelize.File, s sheet, headerStyle int) error {
	headers := make([]any, len(s.columns))
	for i, c := range s.columns {
		headers[i] = c.header
	}
	if err := f.SetSheetRow(s.name, "A1", &headers); err != nil {
		return err
	}
	if len(s.example) > 0 {
		if err := f.SetSheetRow(s.name, "A2", &s.example); err != nil {
			return err
		}
	}

	lastCol, err := excelize.ColumnNumberToName(len(s.columns))
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(s.name, "A1", lastCol+"1", headerStyle); err != nil {
		return err
	}
	if err := f.SetPanes(s.name, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return err
	}

	for i, c := range s.columns {
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(s.name, name, name, c.width); err != nil {
			return err
		}
		if err := addValidation(f, s.name, name, c); err != nil {
			return fmt.Errorf("column %s: %w", c.header, err)
		}
	}
	return nil
}

func addValidation(f *excelize.File, sheetName, col string, c column) error {
	if len(c.options) == 0 && !c.level {
		return nil
	}

	dv := excelize.NewDataValidation(true)
	dv.Sqref = fmt.Sprintf("%s2:%s%d", col, col, validatedRows+1)
	if len(c.options) > 0 {
		if err := dv.SetDropList(c.options); err != nil {
			return err
		}
	} else {
		if err := dv.SetRange(1, 10, excelize.DataValidationTypeWhole, excelize.DataValidationOperatorBetween); err != nil {
			return err
		}
		dv.SetError(excelize.DataValidationErrorStyleStop, "Invalid level", "Level must be a whole number from 1 to 10.")
	}
	return f.AddDataValidation(sheetName, dv)
}

func writeInstructions(f *excelize.File, lines []string) error {
	if _, err := f.NewSheet(instructionsSheet); err != nil {
		return fmt.Errorf("create instructions sheet: %w", err)
	}
	if err := f.SetColWidth(instructionsSheet, "A", "A", 90); err != nil {
		return err
	}
	for i, line := range lines {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(instructionsSheet, cell, line); err != nil {
			return err
		}
	}
	return nil
}
