// Package config loads and edits the project configuration for Robin.
//
// The configuration lives in a single file, .robin.json, in the directory
// Robin is invoked from. It is parsed as JSONC (comments and trailing commas
// are tolerated, processed using tidwall/jsonc) and walked with tidwall/gjson
// so that scripts keep their declaration order.
//
// # File Format
//
//	{
//	  // Optional: "" (host shell), "builtin" or a shell binary
//	  "shell": "",
//	  // Optional: dotenv files loaded into the command environment
//	  "env": [".env"],
//	  // Optional: more config files, glob patterns allowed
//	  "include": ["robin/*.json"],
//	  "scripts": {
//	    "clean": "rm -rf node_modules",
//	    "deploy staging": "fastlane deploy --lane {{lane=beta}}",
//	    "ci": ["go vet ./...", "go test ./..."]
//	  }
//	}
//
// A script is either a string or an array of strings run one after another.
// The older nested form ({"deploy": {"staging": "..."}}) is rejected with a
// MalformedError; Store.Migrate rewrites it into flat names.
//
// # Includes
//
// Include entries are resolved relative to the including file. Scripts from
// included files are appended after the including file's scripts and never
// replace a name that is already declared. Include cycles are rejected.
//
// # Path Management
//
// Paths follows the XDG Base Directory layout for Robin's own state:
//   - Config: ~/.config/robin (XDG_CONFIG_HOME)
//   - State: ~/.local/state/robin (XDG_STATE_HOME), used for log files
package config
