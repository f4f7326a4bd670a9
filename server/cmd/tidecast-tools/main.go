package main

import (
	"github.com/tidecast/tidecast/server/cmd/tidecast-tools/commands"
	_ "github.com/tidecast/tidecast/server/cmd/tidecast-tools/commands/migrate"
	_ "github.com/tidecast/tidecast/server/cmd/tidecast-tools/commands/subscribers"
)

func main() {
	commands.Execute()
}
