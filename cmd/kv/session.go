package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/danmuck/kvlog/src/kvstore"
	logs "github.com/danmuck/smplog"
)

func isInteractiveInput(r *os.File) bool {
	info, err := r.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}

func getBufferedReader(input io.Reader) *bufio.Reader {
	if reader, ok := input.(*bufio.Reader); ok {
		return reader
	}
	return bufio.NewReader(input)
}

// runSession reads commands line by line and dispatches them against the
// store. Data responses (values, NULL, OK, ERR) go to output so piped use
// stays unambiguous; prompts and menus go through smplog when interactive.
func runSession(store *kvstore.Store, input io.Reader, output io.Writer, interactive bool) error {
	reader := getBufferedReader(input)

	if interactive {
		printSessionHelp(store)
	}

	for {
		if interactive {
			logs.Prompt("kvlog> ")
		}

		line, readErr := reader.ReadString('\n')
		if len(line) == 0 && readErr != nil {
			if readErr == io.EOF {
				return nil
			}
			return fmt.Errorf("failed to read input: %w", readErr)
		}

		done, err := dispatch(store, line, output)
		if err != nil {
			return err
		}
		if done || readErr == io.EOF {
			return nil
		}
	}
}

// dispatch executes one command line. Command keywords are matched
// case-insensitively; keys and values are taken verbatim. The boolean
// reports an exit request.
func dispatch(store *kvstore.Store, line string, output io.Writer) (bool, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}

	cmd := strings.ToUpper(fields[0])
	args := fields[1:]

	switch cmd {
	case "SET":
		if len(args) != 2 {
			return false, writeLine(output, "ERR: usage SET <key> <value>")
		}
		if err := store.Set(args[0], args[1]); err != nil {
			if !errors.Is(err, kvstore.ErrInvalidEntry) {
				logs.Errorf(err, "durable write failed")
			}
			return false, writeLine(output, "ERR: "+err.Error())
		}
		return false, writeLine(output, "OK")

	case "GET":
		if len(args) != 1 {
			return false, writeLine(output, "ERR: usage GET <key>")
		}
		value, found := store.Get(args[0])
		if !found {
			return false, writeLine(output, "NULL")
		}
		return false, writeLine(output, value)

	case "STATS":
		st := store.Stats()
		return false, writeLine(output, fmt.Sprintf(
			"records=%d keys=%d shadowed=%d log_bytes=%d",
			st.Records, st.Keys, st.Shadowed, st.LogBytes))

	case "HELP":
		printSessionHelp(store)
		return false, nil

	case "EXIT", "QUIT":
		return true, writeLine(output, "BYE")

	default:
		return false, writeLine(output, fmt.Sprintf("ERR: unknown command %q", cmd))
	}
}

func writeLine(output io.Writer, line string) error {
	if _, err := fmt.Fprintln(output, line); err != nil {
		return fmt.Errorf("failed to write response: %w", err)
	}
	return nil
}

func printSessionHelp(store *kvstore.Store) {
	logs.Titlef("\n--[ kvlog | %s ]--\n\n", store.LogPath())
	logs.KeyHint("SET <key> <value>", "append a durable record and update the index")
	logs.KeyHint("GET <key>", "most recent value for key, NULL when absent")
	logs.KeyHint("STATS", "record / key / shadowed counts and log size")
	logs.KeyHint("HELP", "show this menu")
	logs.KeyHint("EXIT", "close the store and quit")
	logs.Printf("\n")
}
