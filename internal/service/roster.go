package service

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/noah-isme/classroom-api/internal/repository"
)

// Column sizes of the users table. A number also stays under bcrypt's 72 byte
// input limit because it is the default password.
const (
	maxStudentNumberBytes = 64
	maxFullNameRunes      = 255
)

var (
	numberHeaders = []string{"学号", "student_number", "number", "student number"}
	nameHeaders   = []string{"姓名", "full_name", "name", "full name"}
)

// Roster is the parsed content of a student spreadsheet.
type Roster struct {
	Rows       []repository.ImportRow
	Duplicates int
}

// ParseRoster reads the first worksheet of an xlsx workbook. The first non-empty
// row is the header. Rows are deduplicated by student number, first occurrence wins.
func ParseRoster(reader io.Reader, maxRows int) (Roster, error) {
	book, err := excelize.OpenReader(reader)
	if err != nil {
		return Roster{}, fmt.Errorf("%w: %v", ErrSpreadsheetInvalid, err)
	}
	defer book.Close()

	sheets := book.GetSheetList()
	if len(sheets) == 0 {
		return Roster{}, ErrSpreadsheetEmpty
	}

	rows, err := book.GetRows(sheets[0])
	if err != nil {
		return Roster{}, fmt.Errorf("%w: %v", ErrSpreadsheetInvalid, err)
	}

	headerIndex := -1
	for i, row := range rows {
		if !blankRow(row) {
			headerIndex = i
			break
		}
	}
	if headerIndex < 0 {
		return Roster{}, ErrSpreadsheetEmpty
	}

	numberCol, nameCol := -1, -1
	for i, cell := range rows[headerIndex] {
		header := strings.ToLower(strings.TrimSpace(cell))
		switch {
		case numberCol < 0 && containsHeader(numberHeaders, header):
			numberCol = i
		case nameCol < 0 && containsHeader(nameHeaders, header):
			nameCol = i
		}
	}

	data := make([][]string, 0, len(rows)-headerIndex-1)
	for _, row := range rows[headerIndex+1:] {
		if !blankRow(row) {
			data = append(data, row)
		}
	}
	if len(data) == 0 {
		return Roster{}, ErrSpreadsheetEmpty
	}
	if numberCol < 0 || nameCol < 0 {
		return Roster{}, ErrSpreadsheetMissingFields
	}
	if maxRows > 0 && len(data) > maxRows {
		return Roster{}, fmt.Errorf("%w: %d rows, limit %d", ErrSpreadsheetTooLarge, len(data), maxRows)
	}

	roster := Roster{Rows: make([]repository.ImportRow, 0, len(data))}
	seen := make(map[string]struct{}, len(data))
	for _, row := range data {
		number := cellAt(row, numberCol)
		name := cellAt(row, nameCol)
		if number == "" || name == "" {
			return Roster{}, ErrSpreadsheetMissingFields
		}
		if len(number) > maxStudentNumberBytes || utf8.RuneCountInString(name) > maxFullNameRunes {
			return Roster{}, fmt.Errorf("%w: student number %.16q", ErrSpreadsheetValueTooLong, number)
		}
		if _, ok := seen[number]; ok {
			roster.Duplicates++
			continue
		}
		seen[number] = struct{}{}
		roster.Rows = append(roster.Rows, repository.ImportRow{StudentNumber: number, FullName: name})
	}

	return roster, nil
}

func containsHeader(candidates []string, header string) bool {
	for _, candidate := range candidates {
		if header == candidate {
			return true
		}
	}
	return false
}

func cellAt(row []string, index int) string {
	if index < 0 || index >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[index])
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
