// Package console is the interactive text front end of the record store.
//
// It owns nothing but the conversation with the user: it renders menus,
// reads one line at a time, turns choices into records.Store calls and
// prints the outcome. Every failure is reported and control returns to
// the menu that was showing; only end of input (or choosing "exit") ends
// the session, after a final flush of the table.
//
// MENU TREE:
//
//	1 insert ─────────── one prompt per editable field
//	2 search ─┬─ 0 hits  "nothing found"
//	          ├─ 2+ hits "search by exact id"
//	          └─ 1 hit ─┬─ E edit session (numbered fields, 0 to finish)
//	                    ├─ R remove (typed confirmation word)
//	                    └─ C cancel
//	3 exit
package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/aanand-mishra/student-records/internal/records"
	"github.com/aanand-mishra/student-records/internal/storage"
	"github.com/aanand-mishra/student-records/internal/types"
)

const rule = "~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~"

// maxLineSize bounds one answer. bufio.Scanner's 64 KiB default is too
// small for a pasted value; a longer line still ends the session.
const maxLineSize = 1 << 20

// InvalidInputError is a menu answer the console cannot act on. It never
// reaches the store; the user is told and asked again.
type InvalidInputError struct {
	Input  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input %q: %s", e.Input, e.Reason)
}

// Console drives a records.Store from a line-oriented reader and writer.
type Console struct {
	store       *records.Store
	in          *bufio.Scanner
	out         io.Writer
	confirmWord string

	title *color.Color
	ok    *color.Color
	warn  *color.Color
	fail  *color.Color
}

// Option customises a Console.
type Option func(*Console)

// WithConfirmWord sets the word the user must type to confirm a deletion
// (compared case-insensitively). The default is "YES".
func WithConfirmWord(word string) Option {
	return func(c *Console) { c.confirmWord = word }
}

// WithoutColor disables ANSI colours regardless of the terminal.
func WithoutColor() Option {
	return func(c *Console) {
		for _, col := range []*color.Color{c.title, c.ok, c.warn, c.fail} {
			col.DisableColor()
		}
	}
}

// New returns a Console reading answers from in and writing to out.
func New(store *records.Store, in io.Reader, out io.Writer, opts ...Option) *Console {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 4096), maxLineSize)

	c := &Console{
		store:       store,
		in:          scanner,
		out:         out,
		confirmWord: "YES",
		title:       color.New(color.FgCyan, color.Bold),
		ok:          color.New(color.FgGreen),
		warn:        color.New(color.FgYellow),
		fail:        color.New(color.FgRed),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run shows the main menu until the user exits or input ends, then saves
// the table one last time and returns the result of that save.
func (c *Console) Run() error {
	for {
		// Flows only return an error when the session is over: exit chosen,
		// input exhausted or unreadable.
		if err := c.mainMenu(); err != nil {
			break
		}
	}

	fmt.Fprintln(c.out, "\nClosing the system.")
	if err := c.store.Save(); err != nil {
		c.fail.Fprintf(c.out, "Error saving data: %v\n", err)
		return err
	}
	c.ok.Fprintln(c.out, "Data saved.")
	return nil
}

var errExit = errors.New("exit requested")

func (c *Console) mainMenu() error {
	fmt.Fprintln(c.out, "\n"+rule)
	c.title.Fprintln(c.out, "Student Records")
	fmt.Fprintln(c.out, rule)
	fmt.Fprintln(c.out, "1 -> INSERT a new student")
	fmt.Fprintln(c.out, "2 -> SEARCH / EDIT / REMOVE")
	fmt.Fprintln(c.out, "3 -> EXIT")
	fmt.Fprintln(c.out, rule)

	choice, err := c.ask("Your option: ")
	if err != nil {
		return err
	}
	switch choice {
	case "1":
		return c.insert()
	case "2":
		return c.searchAndManage()
	case "3":
		return errExit
	default:
		c.invalid(&InvalidInputError{Input: choice, Reason: "choose 1, 2 or 3"})
		return nil
	}
}

func (c *Console) insert() error {
	c.title.Fprintln(c.out, "\n--- INSERT ---")

	values := make(map[types.Field]string, len(types.EditableFields))
	for _, f := range types.EditableFields {
		v, err := c.ask(f.Label() + ": ")
		if err != nil {
			// Input ended mid-form: nothing is inserted.
			return err
		}
		values[f] = v
	}

	rec, err := c.store.Insert(values)
	if err != nil && !savedLater(err) {
		c.reportError(err)
		return nil
	}
	fmt.Fprintf(c.out, "\nStudent '%s' inserted with id %s.\n", rec.Name, rec.ID)
	c.reportSave(err)
	return nil
}

func (c *Console) searchAndManage() error {
	if c.store.Len() == 0 {
		c.warn.Fprintln(c.out, "Database is empty. Insert a student first.")
		return nil
	}

	term, err := c.ask("Search by id or name: ")
	if err != nil {
		return err
	}

	rec, err := c.store.Resolve(term)
	var amb *records.AmbiguousError
	switch {
	case errors.Is(err, records.ErrNoMatch):
		c.warn.Fprintf(c.out, "No student found for '%s'.\n", term)
		return nil
	case errors.As(err, &amb):
		c.printResults(amb.Matches)
		c.warn.Fprintln(c.out, "Multiple results found. Search by id to edit or remove the right student.")
		return nil
	case err != nil:
		c.reportError(err)
		return nil
	}

	c.printResults([]types.Record{rec})
	fmt.Fprintf(c.out, "\nSelected student: %s (%s)\n", rec.Name, rec.ID)
	fmt.Fprintln(c.out, "[E] Edit")
	fmt.Fprintln(c.out, "[R] Remove")
	fmt.Fprintln(c.out, "[C] Cancel")

	action, err := c.ask("Choose an action: ")
	if err != nil {
		return err
	}
	switch strings.ToLower(action) {
	case "e":
		return c.editSession(rec.ID)
	case "r":
		return c.confirmDelete(rec.ID)
	case "c":
		fmt.Fprintln(c.out, "Action cancelled.")
	default:
		c.invalid(&InvalidInputError{Input: action, Reason: "choose E, R or C"})
	}
	return nil
}

// editSession lets the user change fields of one record until they pick
// 0. Each change is saved by the store as soon as it is made, so leaving
// the session early never loses an applied edit.
func (c *Console) editSession(id string) error {
	for {
		rec, err := c.store.Get(id)
		if err != nil {
			c.reportError(err)
			return nil
		}

		c.title.Fprintln(c.out, "\n--- EDIT FIELD ---")
		for i, f := range types.EditableFields {
			fmt.Fprintf(c.out, "[%d] %s: %s\n", i+1, f.Label(), rec.Get(f))
		}
		fmt.Fprintln(c.out, "[0] FINISH EDITING")

		choice, err := c.ask("Field number to change (0 to finish): ")
		if err != nil {
			return err
		}
		if choice == "0" {
			fmt.Fprintln(c.out, "Editing finished.")
			return nil
		}

		field, ierr := parseFieldChoice(choice)
		if ierr != nil {
			c.invalid(ierr)
			continue
		}

		value, err := c.ask(fmt.Sprintf("New value for '%s': ", field.Label()))
		if err != nil {
			return err
		}
		_, err = c.store.Edit(id, field, value)
		if err != nil && !savedLater(err) {
			c.reportError(err)
			continue
		}
		c.ok.Fprintf(c.out, "'%s' updated.\n", field.Label())
		c.reportSave(err)
	}
}

// savedLater reports whether err only means the table could not be
// written: the change itself is in memory and the next save persists it.
func savedLater(err error) bool {
	var se *storage.StorageError
	return errors.As(err, &se)
}

// parseFieldChoice maps a 1-based menu number, or a column name such as
// "city", to an editable field.
func parseFieldChoice(choice string) (types.Field, *InvalidInputError) {
	n, err := strconv.Atoi(choice)
	if err != nil {
		if f, perr := types.ParseField(choice); perr == nil && f.Editable() {
			return f, nil
		}
		return 0, &InvalidInputError{Input: choice, Reason: "type a field number or name"}
	}
	if n < 1 || n > len(types.EditableFields) {
		return 0, &InvalidInputError{
			Input:  choice,
			Reason: fmt.Sprintf("choose between 0 and %d", len(types.EditableFields)),
		}
	}
	return types.EditableFields[n-1], nil
}

func (c *Console) confirmDelete(id string) error {
	answer, err := c.ask(fmt.Sprintf(
		"CONFIRM PERMANENT REMOVAL of student %s? Type '%s' to proceed: ", id, c.confirmWord))
	if err != nil {
		return err
	}

	deleted, err := c.store.Delete(id, strings.EqualFold(answer, c.confirmWord))
	switch {
	case deleted:
		c.ok.Fprintf(c.out, "Record %s REMOVED.\n", id)
		c.reportSave(err)
	case err != nil:
		c.reportError(err)
	default:
		c.warn.Fprintln(c.out, "REMOVAL CANCELLED by the user.")
	}
	return nil
}

func (c *Console) printResults(results []types.Record) {
	c.title.Fprintln(c.out, "\n--- RESULTS ---")
	tw := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	labels := make([]string, len(types.Fields))
	for i, f := range types.Fields {
		labels[i] = f.Label()
	}
	fmt.Fprintln(tw, strings.Join(labels, "\t"))
	for _, r := range results {
		fmt.Fprintln(tw, strings.Join(r.Values(), "\t"))
	}
	_ = tw.Flush()
}

// ask prints prompt and returns the next input line, trimmed. It returns
// io.EOF when input is exhausted.
func (c *Console) ask(prompt string) (string, error) {
	fmt.Fprint(c.out, prompt)
	if !c.in.Scan() {
		if err := c.in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(c.in.Text()), nil
}

func (c *Console) invalid(err *InvalidInputError) {
	c.warn.Fprintf(c.out, "%v. Try again.\n", err)
}

func (c *Console) reportError(err error) {
	if err != nil {
		c.fail.Fprintf(c.out, "Error: %v\n", err)
	}
}

// reportSave tells the user when a change was applied in memory but could
// not be written to disk.
func (c *Console) reportSave(err error) {
	if err != nil {
		c.fail.Fprintf(c.out, "Warning: change kept in memory but not saved: %v\n", err)
	}
}
