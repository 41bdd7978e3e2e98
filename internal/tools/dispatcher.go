package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Dispatcher routes validated tool calls to their implementations and
// renders results as text for the conversation.
type Dispatcher struct {
	reg *Registry
}

// NewDispatcher builds a dispatcher over a tool registry.
func NewDispatcher(reg *Registry) *Dispatcher {
	return &Dispatcher{reg: reg}
}

// Schemas exposes the registry's tool descriptors.
func (d *Dispatcher) Schemas() []Schema {
	return d.reg.Schemas()
}

// Invoke validates and executes one tool call. All failures are
// classified; the caller decides whether to surface them to the model or
// abort.
func (d *Dispatcher) Invoke(ctx context.Context, name string, args map[string]interface{}) (string, error) {
	if err := ValidateCall(d.reg, name, args); err != nil {
		return "", err
	}

	switch name {
	case "fs.read_file":
		return d.reg.FS.ReadFile(stringArg(args, "path"))

	case "fs.write_file":
		path := stringArg(args, "path")
		if err := d.reg.FS.WriteFile(path, stringArg(args, "content")); err != nil {
			return "", err
		}
		return fmt.Sprintf("wrote %s", path), nil

	case "fs.list_dir":
		names, err := d.reg.FS.ListDir(orDefault(stringArg(args, "path"), "."))
		if err != nil {
			return "", err
		}
		return strings.Join(names, "\n"), nil

	case "fs.search":
		results, err := d.reg.FS.Search(
			stringArg(args, "root"),
			stringArg(args, "pattern"),
			intArg(args, "max_results"),
		)
		if err != nil {
			return "", err
		}
		if len(results) == 0 {
			return "no matches", nil
		}
		return renderJSON(results)

	case "fs.tree":
		return d.reg.FS.DescribeStructure(
			orDefault(stringArg(args, "path"), "."),
			intArg(args, "max_depth"),
			0,
		)

	case "terminal.exec":
		res, err := d.reg.Terminal.Exec(ctx, stringArg(args, "command"), stringArgs(args, "args")...)
		if err != nil {
			return "", err
		}
		return renderJSON(res)

	case "git.status":
		return d.reg.Git.Status()

	case "git.diff":
		return d.reg.Git.Diff(stringArg(args, "path"))

	case "git.apply_patch":
		dryRun, ok := args["dry_run"].(bool)
		if !ok {
			dryRun = true
		}
		return d.reg.Git.ApplyPatch(stringArg(args, "patch"), dryRun)

	default:
		return "", NewError(KindNotFound, name, fmt.Sprintf("unknown tool %q", name))
	}
}

func stringArg(args map[string]interface{}, key string) string {
	s, _ := args[key].(string)
	return s
}

func stringArgs(args map[string]interface{}, key string) []string {
	raw, _ := args[key].([]interface{})
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func intArg(args map[string]interface{}, key string) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	default:
		return 0
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func renderJSON(v interface{}) (string, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", NewError(KindInternal, "", err.Error())
	}
	return string(b), nil
}
