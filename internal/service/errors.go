package service

import "errors"

var (
	// ErrCourseNotFound indicates the requested course does not exist.
	ErrCourseNotFound = errors.New("course not found")
	// ErrStudentNotFound indicates the requested student does not exist.
	ErrStudentNotFound = errors.New("student not found")
	// ErrAssignmentNotFound indicates the requested assignment does not exist.
	ErrAssignmentNotFound = errors.New("assignment not found")
	// ErrSubmissionNotFound indicates the student has not submitted the assignment.
	ErrSubmissionNotFound = errors.New("submission not found")
	// ErrEnrollmentNotFound indicates the student is not enrolled in the course.
	ErrEnrollmentNotFound = errors.New("student is not enrolled in the course")
	// ErrUploadFolderNotFound indicates no file was ever uploaded for the assignment.
	ErrUploadFolderNotFound = errors.New("upload folder not found")
	// ErrInvalidCredentials indicates the student number or password is wrong.
	ErrInvalidCredentials = errors.New("invalid student number or password")
	// ErrDuplicateStudentNumber indicates another student already uses the number.
	ErrDuplicateStudentNumber = errors.New("student number already exists")

	// ErrSpreadsheetEmpty indicates the spreadsheet carried no data rows.
	ErrSpreadsheetEmpty = errors.New("spreadsheet is empty")
	// ErrSpreadsheetMissingFields indicates a row or the header lacks the number or name.
	ErrSpreadsheetMissingFields = errors.New("spreadsheet is missing required student fields")
	// ErrSpreadsheetInvalid indicates the upload could not be read as a workbook.
	ErrSpreadsheetInvalid = errors.New("file is not a valid spreadsheet")
	// ErrSpreadsheetValueTooLong indicates a student number or name exceeds the column size.
	ErrSpreadsheetValueTooLong = errors.New("spreadsheet value exceeds maximum length")
	// ErrSpreadsheetTooLarge indicates the spreadsheet exceeds the configured row limit.
	ErrSpreadsheetTooLarge = errors.New("spreadsheet has too many rows")

	// ErrFileRequired indicates the multipart request carried no file.
	ErrFileRequired = errors.New("file is required")
	// ErrUploadTooLarge indicates the payload exceeded the configured limit.
	ErrUploadTooLarge = errors.New("file exceeds maximum allowed size")
	// ErrUploadTypeNotAllowed indicates the MIME type is not permitted.
	ErrUploadTypeNotAllowed = errors.New("file type not allowed")
	// ErrInvalidDueDate indicates the due date is neither RFC3339 nor YYYY-MM-DD.
	ErrInvalidDueDate = errors.New("due date must be RFC3339 or YYYY-MM-DD")
)
