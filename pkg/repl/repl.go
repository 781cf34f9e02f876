package repl

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/nkysg/intro-to-database/pkg/config"

	"github.com/google/uuid"
)

// ReplCommand is the action run for a trigger. It receives the entire input
// line, including the trigger itself.
type ReplCommand func(string, *REPLConfig) (output string, err error)

const (
	// Trigger for the help meta-command that prints out all help strings
	TriggerHelpMetacommand = ".help"

	// String that should be prepended to any error before being sent to the output writer
	ErrorPrependStr = "ERROR: "
)

var (
	// Error for when combined REPLs share a trigger
	ErrOverlappingCommands = errors.New("found overlapping commands")

	// Error for when a sent trigger is not associated with any known commands
	ErrCommandNotFound = errors.New("command not found")
)

// REPL is a set of commands, each with a trigger and a help string.
type REPL struct {
	commands map[string]ReplCommand
	help     map[string]string
}

// REPLConfig carries per-client state through to commands.
type REPLConfig struct {
	clientId uuid.UUID
}

// GetAddr returns the id of the client this REPL session serves.
func (replConfig *REPLConfig) GetAddr() uuid.UUID {
	return replConfig.clientId
}

// NewRepl constructs an empty REPL with no commands.
func NewRepl() *REPL {
	return &REPL{
		commands: make(map[string]ReplCommand),
		help:     make(map[string]string),
	}
}

// CombineRepls merges a slice of REPLs into one.
// Errors if the REPLs being combined have any overlapping triggers.
// If no REPLs are given, returns a new empty REPL.
func CombineRepls(repls []*REPL) (*REPL, error) {
	combined := NewRepl()
	for _, r := range repls {
		for trigger, action := range r.commands {
			if _, exists := combined.commands[trigger]; exists {
				return nil, fmt.Errorf("%w: %s", ErrOverlappingCommands, trigger)
			}
			combined.AddCommand(trigger, action, r.help[trigger])
		}
	}
	return combined, nil
}

// GetCommands returns the trigger to command mapping.
func (r *REPL) GetCommands() map[string]ReplCommand {
	return r.commands
}

// GetHelp returns the trigger to help string mapping.
func (r *REPL) GetHelp() map[string]string {
	return r.help
}

// AddCommand adds a command, along with its help string, to the set of
// commands. A duplicate trigger overwrites the previous command.
func (r *REPL) AddCommand(trigger string, action ReplCommand, help string) {
	if trigger == TriggerHelpMetacommand {
		return // TODO: return error
	}
	r.commands[trigger] = action
	r.help[trigger] = help
}

// HelpString returns all commands' help strings as one string, sorted by trigger.
func (r *REPL) HelpString() string {
	triggers := make([]string, 0, len(r.help))
	for trigger := range r.help {
		triggers = append(triggers, trigger)
	}
	sort.Strings(triggers)
	var sb strings.Builder
	for _, trigger := range triggers {
		sb.WriteString(fmt.Sprintf("%s: %s\n", trigger, r.help[trigger]))
	}
	return sb.String()
}

// run dispatches one input line, writing the command's output or error to output.
func (r *REPL) run(payload string, replConfig *REPLConfig, output io.Writer) {
	fields := strings.Fields(payload)
	if len(fields) == 0 {
		return
	}
	trigger := fields[0]
	// Check for the help meta-command.
	if trigger == TriggerHelpMetacommand {
		io.WriteString(output, r.HelpString())
		return
	}
	// Else, check user-specified commands.
	command, exists := r.commands[trigger]
	if !exists {
		fmt.Fprintf(output, "%s%s\n", ErrorPrependStr, ErrCommandNotFound)
		return
	}
	result, err := command(payload, replConfig)
	if err != nil {
		fmt.Fprintf(output, "%s%s\n", ErrorPrependStr, err)
		return
	}
	// Append a newline if there is output and it doesn't end with one already.
	if len(result) != 0 && !strings.HasSuffix(result, "\n") {
		result = result + "\n"
	}
	io.WriteString(output, result)
}

// Run writes the welcome string and then runs the REPL loop until input is
// exhausted. The prompt is the prefix showing that the REPL is ready to
// accept input. Input and output default to Stdin and Stdout if unspecified.
func (r *REPL) Run(clientId uuid.UUID, prompt string, input io.Reader, output io.Writer) {
	if input == nil {
		input = os.Stdin
	}
	if output == nil {
		output = os.Stdout
	}

	scanner := bufio.NewScanner(input)
	replConfig := &REPLConfig{clientId: clientId}
	fmt.Fprintf(output, "Welcome to the %s REPL! Please type '%s' to see the list of available commands.\n",
		config.DBName, TriggerHelpMetacommand)
	io.WriteString(output, prompt)

	for scanner.Scan() {
		r.run(scanner.Text(), replConfig, output)
		io.WriteString(output, prompt)
	}
	// Print an additional line if we encountered an EOF character.
	io.WriteString(output, "\n")
}

// RunChan runs the REPL loop over lines received on the given channel until
// it is closed, echoing each line and writing results to stdout. Drivers that
// feed many clients through one REPL use this instead of Run.
func (r *REPL) RunChan(c chan string, clientId uuid.UUID, prompt string) {
	writer := os.Stdout
	replConfig := &REPLConfig{clientId: clientId}
	io.WriteString(writer, prompt)
	for payload := range c {
		// Emit the payload for debugging purposes.
		io.WriteString(writer, payload+"\n")
		r.run(payload, replConfig, writer)
		io.WriteString(writer, prompt)
	}
	io.WriteString(writer, "\n")
}
