package list

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nkysg/intro-to-database/pkg/repl"
)

var (
	ErrListPrintInvalidArgs = errors.New("invalid arguments, usage: list_print")

	ErrListPushHeadInvalidArgs = errors.New("invalid arguments, usage: list_push_head <elt>")

	ErrListPushTailInvalidArgs = errors.New("invalid arguments, usage: list_push_tail <elt>")

	ErrListRemoveValueNotFound = errors.New("link with given value was not found")
	ErrListRemoveInvalidArgs   = errors.New("invalid arguments, usage: list_remove <elt>")

	ErrListContainsInvalidArgs = errors.New("invalid arguments, usage: list_contains <elt>")
)

const (
	HelpListPrint    = "Input: List of anything. Prints out all of the elements in the list in order. usage: list_print"
	HelpListPushHead = "Inserts the given element to the head of the list as a string. usage: list_push_head <elt>"
	HelpListPushTail = "Inserts the given element to the end of the list as a string. usage: list_push_tail <elt>"
	HelpListRemove   = "Removes the given element from the list. usage: list_remove <elt>"
	HelpListContains = "Check whether the element is in the list or not. usage: list_contains <elt>"

	// Output strings for the list_contains command
	OutputListContainsFound    = "value was found"
	OutputListContainsNotFound = "value was not found"
)

// ListRepl creates a REPL for driving the given list of strings.
func ListRepl(list *List[string]) *repl.REPL {
	newrepl := repl.NewRepl()

	newrepl.AddCommand("list_print", func(payload string, replConfig *repl.REPLConfig) (string, error) {
		if len(strings.Fields(payload)) != 1 {
			return "", ErrListPrintInvalidArgs
		}
		printBuilder := new(strings.Builder)
		list.Map(func(link *Link[string]) { fmt.Fprintln(printBuilder, link.value) })
		return printBuilder.String(), nil
	}, HelpListPrint)

	newrepl.AddCommand("list_push_head", func(payload string, replConfig *repl.REPLConfig) (string, error) {
		tokens := strings.Fields(payload)
		if len(tokens) != 2 {
			return "", ErrListPushHeadInvalidArgs
		}
		list.PushHead(tokens[1])
		return "", nil
	}, HelpListPushHead)

	newrepl.AddCommand("list_push_tail", func(payload string, replConfig *repl.REPLConfig) (string, error) {
		tokens := strings.Fields(payload)
		if len(tokens) != 2 {
			return "", ErrListPushTailInvalidArgs
		}
		list.PushTail(tokens[1])
		return "", nil
	}, HelpListPushTail)

	newrepl.AddCommand("list_remove", func(payload string, replConfig *repl.REPLConfig) (string, error) {
		tokens := strings.Fields(payload)
		if len(tokens) != 2 {
			return "", ErrListRemoveInvalidArgs
		}
		link := list.Find(func(link *Link[string]) bool { return link.value == tokens[1] })
		if link == nil {
			return "", ErrListRemoveValueNotFound
		}
		link.PopSelf()
		return "", nil
	}, HelpListRemove)

	newrepl.AddCommand("list_contains", func(payload string, replConfig *repl.REPLConfig) (string, error) {
		tokens := strings.Fields(payload)
		if len(tokens) != 2 {
			return "", ErrListContainsInvalidArgs
		}
		if list.Find(func(link *Link[string]) bool { return link.value == tokens[1] }) != nil {
			return OutputListContainsFound, nil
		}
		return OutputListContainsNotFound, nil
	}, HelpListContains)

	return newrepl
}
