package bot

// Commands the router answers itself. The rest go to the conversation engine.
const (
	CommandHelp = "/help"
)

// menuCommands are published to Telegram so clients can suggest them.
var menuCommands = []struct {
	Text        string
	Description string
}{
	{Text: "start", Description: "Main menu"},
	{Text: "cancel", Description: "Drop the current entry"},
	{Text: "reg", Description: "Request access"},
	{Text: "help", Description: "Show help"},
}
