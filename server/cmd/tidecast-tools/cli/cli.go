package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"gopkg.in/yaml.v2"
)

var Stderr = log.New(os.Stderr, "", 0)
var Stdout = log.New(os.Stdout, "", 0)

const (
	OutputTable = "table"
	OutputJSON  = "json"
	OutputYAML  = "yaml"
)

// OutputFormats returns the names of the supported --output formats.
func OutputFormats() []string {
	return []string{OutputTable, OutputJSON, OutputYAML}
}

func Exit(err error) {
	if err != nil {
		Stderr.Println(err)
		os.Exit(1)
	}
	os.Exit(0)
}

// WriteStructured writes value to out as JSON or YAML, depending on format.
func WriteStructured(out io.Writer, format string, value interface{}) error {
	switch strings.ToLower(format) {
	case OutputJSON:
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(value)
	case OutputYAML:
		buf, err := yaml.Marshal(value)
		if err != nil {
			return fmt.Errorf("error marshalling yaml: %w", err)
		}
		_, err = out.Write(buf)
		return err
	default:
		return fmt.Errorf("error unsupported output format %q; expected one of: %s", format, strings.Join(OutputFormats(), ", "))
	}
}

// AskForConfirmation prompts the user in the command line for an 'are you sure' response, using
// the supplied prompt. The user must respond either "Y" (with a capital Y) or there are a variety of
// acceptable no responses including "n", "N", "no", "No" and "NO".
// If skipConfirmation is true then 'true' will always be returned without seeking
// interactive confirmation from the user.
func AskForConfirmation(prompt string, skipConfirmation bool) bool {
	if skipConfirmation {
		return true
	}

	Stdout.Printf("%s (please type Y or N): ", prompt)
	var response string
	_, err := fmt.Scanln(&response)
	if err != nil {
		Stdout.Printf("Error reading confirmation response: %s", err)
		return false
	}

	switch response {
	case "Y":
		return true
	case "n", "N", "no", "No", "NO":
		return false
	default:
		return AskForConfirmation("Please type (capital) Y for Yes or N for No and press enter", false)
	}
}
