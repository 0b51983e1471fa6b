package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rxkshit04/nightpulse/internal/models"
	"github.com/rxkshit04/nightpulse/internal/presentation"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // the store or location rejected the operation
	ExitCommandError = 2 // bad flags or input
)

type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode returns ExitFailure for errors that carry no code.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

type OutputFormatter struct {
	Format string
	Writer io.Writer
}

func (f *OutputFormatter) JSON(v any) error {
	return json.NewEncoder(f.Writer).Encode(v)
}

func (f *OutputFormatter) Alerts(alerts []models.Alert) error {
	if f.Format == "json" {
		return f.JSON(alerts)
	}
	if len(alerts) == 0 {
		fmt.Fprintln(f.Writer, "No alerts.")
		return nil
	}
	for _, a := range alerts {
		f.alertLine(a.ID, a.Title, a.Category, a.Description)
	}
	return nil
}

func (f *OutputFormatter) alertLine(id, title string, category models.Category, description string) {
	fmt.Fprintf(f.Writer, "%s  [%s] %s", id, presentation.IconName(category), title)
	if category != presentation.IconKey(category) {
		fmt.Fprintf(f.Writer, " (%s)", category)
	}
	if description != "" {
		fmt.Fprintf(f.Writer, " - %s", description)
	}
	fmt.Fprintln(f.Writer)
}

// View prints one rendered view. Text output is a short status line
// followed by the alert cards.
func (f *OutputFormatter) View(v presentation.View) error {
	if f.Format == "json" {
		return f.JSON(v)
	}

	var status []string
	status = append(status, v.State.String())
	if v.Banner != "" {
		status = append(status, v.Banner)
	}
	if v.Map != nil {
		status = append(status, fmt.Sprintf("at %.5f,%.5f", v.Map.Center.Lat, v.Map.Center.Lng))
	}
	status = append(status, fmt.Sprintf("%d alert(s)", len(v.Cards)))
	if v.Notice != "" {
		status = append(status, "notice: "+v.Notice)
	}
	fmt.Fprintf(f.Writer, "#%d %s\n", v.Version, strings.Join(status, " | "))

	for _, c := range v.Cards {
		fmt.Fprint(f.Writer, "  ")
		f.alertLine(c.ID, c.Title, c.Category, c.Description)
	}
	return nil
}
