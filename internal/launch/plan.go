// Package launch turns a session.Spec into the exact dprun invocation.
package launch

import (
	"context"
	"os/exec"
	"runtime"
	"strconv"
	"strings"

	"github.com/faize-ai/dplaunch/internal/callback"
	"github.com/faize-ai/dplaunch/internal/session"
)

// Defaults for NewAssembler.
const (
	DefaultExecutable = "dprun.exe"
	DefaultShim       = "wine"
)

const passwordFlag = "--session-password"

// Plan is a ready-to-run dprun invocation.
type Plan struct {
	Program string
	Args    []string
	// Dir is the working directory; empty means the caller's.
	Dir string
	// CallbackPort is the port the callback server must listen on, or 0 when
	// the session has no callback handler.
	CallbackPort int
}

// Command builds the command for the plan. The process is killed if ctx is
// done before it exits.
func (p Plan) Command(ctx context.Context) *exec.Cmd {
	cmd := exec.CommandContext(ctx, p.Program, p.Args...)
	cmd.Dir = p.Dir
	return cmd
}

// Tokens returns the program followed by its arguments.
func (p Plan) Tokens() []string {
	return append([]string{p.Program}, p.Args...)
}

// Redacted returns Tokens with the session password masked.
func (p Plan) Redacted() []string {
	tokens := p.Tokens()
	for i := 0; i < len(tokens)-1; i++ {
		if tokens[i] == passwordFlag {
			tokens[i+1] = "********"
		}
	}
	return tokens
}

// String renders every token quoted, for debugging, e.g.
// "wine" "dprun.exe" "--host".
func (p Plan) String() string {
	quoted := make([]string, 0, len(p.Args)+1)
	for _, tok := range p.Tokens() {
		quoted = append(quoted, strconv.Quote(tok))
	}
	return strings.Join(quoted, " ")
}

// Assembler produces Plans. Its zero value is not usable; use NewAssembler.
type Assembler struct {
	// Executable is the dprun program name or path.
	Executable string
	// Shim runs Executable on hosts that cannot run it natively.
	Shim string
	// UseShim selects whether Shim is used.
	UseShim bool
	// CallbackPort is the port used when the address has no INetPort part.
	CallbackPort int
}

// NewAssembler returns an Assembler that runs dprun.exe natively on Windows
// and through wine everywhere else.
func NewAssembler() *Assembler {
	return &Assembler{
		Executable:   DefaultExecutable,
		Shim:         DefaultShim,
		UseShim:      runtime.GOOS != "windows",
		CallbackPort: callback.DefaultPort,
	}
}

// Assemble builds the invocation for spec. Argument groups are emitted in the
// order dprun expects: mode, player, service provider, application, address
// parts, session name, session password.
func (a *Assembler) Assemble(spec *session.Spec) Plan {
	plan := Plan{
		Program: a.Executable,
		Dir:     spec.Dir(),
	}
	if a.UseShim {
		plan.Program = a.Shim
		plan.Args = append(plan.Args, a.Executable)
	}

	plan.Args = append(plan.Args, spec.Mode().Args()...)
	plan.Args = append(plan.Args,
		"--player", spec.PlayerName(),
		"--service-provider", spec.Provider().String(),
		"--application", spec.Application().String(),
	)

	for _, part := range spec.Address() {
		plan.Args = append(plan.Args, "--address", part.Encode())
	}

	if name, ok := spec.SessionName(); ok {
		plan.Args = append(plan.Args, "--session-name", name)
	}
	if password, ok := spec.SessionPassword(); ok {
		plan.Args = append(plan.Args, passwordFlag, password)
	}

	if spec.HasHandler() {
		plan.CallbackPort = a.callbackPort(spec)
	}

	return plan
}

// callbackPort returns the port from the first INetPort address part, or the
// default if there is none or it is not a valid port number.
func (a *Assembler) callbackPort(spec *session.Spec) int {
	for _, part := range spec.Address() {
		if !part.Key.IsINetPort() {
			continue
		}
		if n, ok := part.Int(); ok && n > 0 && n <= 65535 {
			return int(n)
		}
		break
	}
	return a.CallbackPort
}
