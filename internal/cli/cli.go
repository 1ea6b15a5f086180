// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - Command parsing and usage text for edusphere.
package cli

import (
	"fmt"
	"os"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdLogin
	CmdRegister
	CmdLogout
	CmdWhoami
	CmdAsk
	CmdChat
	CmdUpload
	CmdRecommend
	CmdCourses
	CmdScholarships
	CmdSummary
	CmdTranscripts
	CmdSearch
	CmdConfig
	CmdDoctor
	CmdVersion
	CmdHelp
)

var commandNames = map[Command]string{
	CmdTUI:          "tui",
	CmdLogin:        "login",
	CmdRegister:     "register",
	CmdLogout:       "logout",
	CmdWhoami:       "whoami",
	CmdAsk:          "ask",
	CmdChat:         "chat",
	CmdUpload:       "upload",
	CmdRecommend:    "recommend",
	CmdCourses:      "courses",
	CmdScholarships: "scholarships",
	CmdSummary:      "summary",
	CmdTranscripts:  "transcripts",
	CmdSearch:       "search",
	CmdConfig:       "config",
	CmdDoctor:       "doctor",
	CmdVersion:      "version",
	CmdHelp:         "help",
}

// String returns the command name.
func (c Command) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return "unknown"
}

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	Verbose bool
	Quiet   bool
	JSON    bool

	// Raw args after the command name
	Raw []string
}

// Parser returns an ArgParser over the command arguments.
func (a Args) Parser() *ArgParser {
	return NewArgParser(a.Raw, "json", "raw", "scholarships", "no-markdown", "confirm", "y", "forget")
}

const usageText = `edusphere - academic advising in the terminal

Usage:
  edusphere                          Start the chat TUI (default)
  edusphere login [username]         Log in
  edusphere register                 Create an account
  edusphere logout [--forget]        Forget the saved session (and chat context)
  edusphere whoami                   Show the logged in user
  edusphere ask "question"           Ask the advisor one question
  edusphere chat                     Line-mode chat with history
  edusphere upload <file.pdf>        Upload a transcript
  edusphere recommend <file.pdf>     Upload and analyze a transcript
    --preference TEXT                What you want to study next
  edusphere recommend --transcript ID  Analyze an uploaded transcript
  edusphere courses [list|show ID|remove RECO COURSE]
  edusphere scholarships             Suggest scholarships
  edusphere summary generate         Draft a summary of your transcript
  edusphere summary save [--reco ID] [--scholarships] [--text TEXT]
  edusphere summary list             List saved summaries
  edusphere summary download ID [--output FILE]
  edusphere summary delete ID --confirm
  edusphere transcripts [list|show ID|history]
  edusphere search QUERY             Web search through the service
  edusphere config [show|get|set|keys|reset|path]
  edusphere doctor                   Check config, storage, and server
  edusphere version

Global Flags:
  -v, --verbose   Log HTTP traffic to stderr
  -q, --quiet     Minimal output
  --json          Output in JSON format

Environment:
  EDUSPHERE_BASE_URL          Service URL (default http://localhost:8080/api)
  EDUSPHERE_CONFIG            Config file (default ~/.edusphere/config.toml)
  EDUSPHERE_TOKEN_PASSPHRASE  Passphrase for security.encrypt_token

Version: %s
`

// PrintUsage prints the usage/help text.
func PrintUsage() {
	fmt.Printf(usageText, Version)
}

// PrintVersion prints version information.
func PrintVersion() {
	fmt.Printf("edusphere version %s\n", Version)
	fmt.Printf("  Git commit: %s\n", GitCommit)
	fmt.Printf("  Build date: %s\n", BuildDate)
}

// Parse parses os.Args.
func Parse() (Command, Args) {
	return ParseArgs(os.Args[1:])
}

// ParseArgs parses command-line arguments and returns the command and args.
func ParseArgs(argv []string) (Command, Args) {
	remaining, parsed := parseGlobalFlags(argv)
	if len(remaining) == 0 {
		return CmdTUI, parsed
	}

	name := strings.ToLower(remaining[0])
	parsed.Raw = remaining[1:]

	switch name {
	case "tui":
		return CmdTUI, parsed
	case "login", "signin":
		return CmdLogin, parsed
	case "register", "signup":
		return CmdRegister, parsed
	case "logout", "signout":
		return CmdLogout, parsed
	case "whoami", "me":
		return CmdWhoami, parsed
	case "ask":
		return CmdAsk, parsed
	case "chat":
		return CmdChat, parsed
	case "upload":
		return CmdUpload, parsed
	case "recommend", "analyze":
		return CmdRecommend, parsed
	case "courses", "recommendations":
		return CmdCourses, parsed
	case "scholarships":
		return CmdScholarships, parsed
	case "summary", "summaries":
		return CmdSummary, parsed
	case "transcripts", "transcript":
		return CmdTranscripts, parsed
	case "search":
		return CmdSearch, parsed
	case "config":
		return CmdConfig, parsed
	case "doctor", "diag":
		return CmdDoctor, parsed
	case "version", "--version":
		return CmdVersion, parsed
	case "help", "-h", "--help":
		return CmdHelp, parsed
	default:
		parsed.Raw = remaining
		return CmdHelp, parsed
	}
}

// parseGlobalFlags extracts global flags from args and returns remaining args.
func parseGlobalFlags(args []string) ([]string, Args) {
	var remaining []string
	var parsed Args

	for _, arg := range args {
		switch arg {
		case "-v", "--verbose":
			parsed.Verbose = true
		case "-q", "--quiet":
			parsed.Quiet = true
		case "--json":
			parsed.JSON = true
		default:
			remaining = append(remaining, arg)
		}
	}
	return remaining, parsed
}
