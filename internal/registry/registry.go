// Package registry answers "which agents match this event?" by compiling
// each agent's glob and content-regex rules once at load time, not
// per event.
package registry

import (
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ai4pkm/orchestrator/internal/config"
	"github.com/ai4pkm/orchestrator/internal/event"
	"github.com/gobwas/glob"
)

// contentPeekBytes bounds how much of a candidate file is read when
// evaluating trigger_content_regex, so a multi-gigabyte note can't stall
// the coordinator's dispatch path.
const contentPeekBytes = 64 * 1024

// matcher distinguishes a plain directory prefix from a glob pattern in
// an agent's input_paths entry.
type matcher struct {
	dirPrefix string // non-empty for a plain directory entry
	pattern   glob.Glob
}

// matches reports whether relPath satisfies this matcher. A plain
// directory entry only ever means ".md notes under this directory"; a glob
// pattern carries its own extension (e.g. "Ingest/**/*.txt"), so it is not
// additionally constrained to ".md" here: extra extensions are expressed
// through the pattern itself, not a separate field.
func (m matcher) matches(relPath string) bool {
	if m.pattern != nil {
		return m.pattern.Match(relPath)
	}
	if !strings.HasSuffix(relPath, ".md") {
		return false
	}
	rel, err := filepath.Rel(m.dirPrefix, relPath)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// compiled is the per-agent precomputed matching state.
type compiled struct {
	agent        *config.AgentDefinition
	inputs       []matcher
	excludeGlob  glob.Glob
	contentRegex *regexp.Regexp
}

// Registry holds the loaded agent set and its compiled matching rules.
type Registry struct {
	vaultRoot string
	byAbbr    map[string]*config.AgentDefinition
	ordered   []*compiled
}

// New compiles the glob and regex rules for every agent once. A malformed
// glob or regex is a load-time ConfigError, never a per-event failure.
func New(vaultRoot string, agents []*config.AgentDefinition) (*Registry, error) {
	r := &Registry{
		vaultRoot: vaultRoot,
		byAbbr:    make(map[string]*config.AgentDefinition, len(agents)),
	}

	for _, a := range agents {
		r.byAbbr[a.Abbreviation] = a

		c := &compiled{agent: a}
		for _, p := range a.InputPaths {
			m, err := compileInputPath(vaultRoot, p)
			if err != nil {
				return nil, config.NewConfigError("agent "+a.Name+": input_path "+p, err)
			}
			c.inputs = append(c.inputs, m)
		}
		if a.TriggerExcludeGlob != "" {
			g, err := glob.Compile(a.TriggerExcludeGlob, '/')
			if err != nil {
				return nil, config.NewConfigError("agent "+a.Name+": trigger_exclude_glob", err)
			}
			c.excludeGlob = g
		}
		if a.TriggerContentRegex != "" {
			re, err := regexp.Compile(a.TriggerContentRegex)
			if err != nil {
				return nil, config.NewConfigError("agent "+a.Name+": trigger_content_regex", err)
			}
			c.contentRegex = re
		}
		r.ordered = append(r.ordered, c)
	}
	return r, nil
}

func compileInputPath(vaultRoot, p string) (matcher, error) {
	if strings.ContainsAny(p, "*?[{") {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return matcher{}, err
		}
		return matcher{pattern: g}, nil
	}
	return matcher{dirPrefix: filepath.ToSlash(p)}, nil
}

// Match finds every agent an event should fire: a directed event
// (cron/manual) resolves by abbr or
// name directly; otherwise every agent's path/extension/exclude/content
// rules are evaluated in load order. Multiple matches are legal.
func (r *Registry) Match(e event.FileEvent) []*config.AgentDefinition {
	if e.IsDirected() {
		if a := r.Lookup(e.AgentName); a != nil {
			return []*config.AgentDefinition{a}
		}
		return nil
	}

	rel, err := filepath.Rel(r.vaultRoot, e.Path)
	if err != nil {
		return nil
	}
	rel = filepath.ToSlash(rel)

	var matches []*config.AgentDefinition
	for _, c := range r.ordered {
		if len(c.inputs) == 0 {
			continue // cron/manual-only agent, never matched by a file event
		}
		if !anyMatch(c.inputs, rel) {
			continue
		}
		if c.excludeGlob != nil && c.excludeGlob.Match(rel) {
			continue
		}
		if c.contentRegex != nil && !contentMatches(e.Path, c.contentRegex) {
			continue
		}
		matches = append(matches, c.agent)
	}
	return matches
}

func anyMatch(ms []matcher, rel string) bool {
	for _, m := range ms {
		if m.matches(rel) {
			return true
		}
	}
	return false
}

func contentMatches(path string, re *regexp.Regexp) bool {
	f, err := os.Open(path)
	if err != nil {
		slog.Debug("registry: skip content match, file unreadable", "path", path, "err", err)
		return false
	}
	defer func() { _ = f.Close() }()

	buf := make([]byte, contentPeekBytes)
	n, err := f.Read(buf)
	if n == 0 && err != nil {
		return false
	}
	return re.Match(buf[:n])
}

// Lookup resolves an agent by its abbreviation or full display name, used
// for cron/manual directed events and for the `trigger` CLI command.
func (r *Registry) Lookup(nameOrAbbr string) *config.AgentDefinition {
	if a, ok := r.byAbbr[nameOrAbbr]; ok {
		return a
	}
	for _, a := range r.byAbbr {
		if a.Name == nameOrAbbr {
			return a
		}
	}
	return nil
}

// Agents returns every loaded agent definition in load order.
func (r *Registry) Agents() []*config.AgentDefinition {
	agents := make([]*config.AgentDefinition, len(r.ordered))
	for i, c := range r.ordered {
		agents[i] = c.agent
	}
	return agents
}

// CronAgents returns every agent declaring a cron expression, in load
// order, for the Cron Scheduler to seed its next-fire table from.
func (r *Registry) CronAgents() []*config.AgentDefinition {
	var out []*config.AgentDefinition
	for _, c := range r.ordered {
		if c.agent.HasCron() {
			out = append(out, c.agent)
		}
	}
	return out
}
