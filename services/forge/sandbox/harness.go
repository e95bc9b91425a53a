// Copyright (C) 2025 Codesmith AI (oss@codesmith.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package sandbox

import (
	"fmt"

	"github.com/codesmith-ai/codesmith/pkg/validation"
)

// harnessTemplate wraps candidate source in a restricted interpreter
// session. Filesystem, network-capable imports, and dynamic execution are
// replaced with raising stubs before the candidate's module body runs, so
// even top-level escapes hit the guard. One case is read from stdin and
// one JSON result line is written to stdout.
const harnessTemplate = `import builtins as _builtins
import json as _json
import sys as _sys

class SandboxViolation(Exception):
    pass

_ALLOWED_IMPORTS = {"re", "math", "string", "collections", "itertools", "functools"}

# The real __import__ lives only in this default argument, not as a
# module-level name the candidate could call directly.
def _guarded_import(name, *args, _imp=_builtins.__import__, **kwargs):
    if name.split(".")[0] not in _ALLOWED_IMPORTS:
        raise SandboxViolation("import of " + name + " is not allowed")
    return _imp(name, *args, **kwargs)

def _blocked(name):
    def _fn(*_args, **_kwargs):
        raise SandboxViolation(name + " is not allowed")
    return _fn

_builtins.__import__ = _guarded_import
for _name in ("open", "exec", "eval", "compile", "input", "breakpoint"):
    setattr(_builtins, _name, _blocked(_name))

%s

def _run():
    case = _json.loads(_sys.stdin.read())
    kwargs = case.get("inputs") or {}
    try:
        value = %s(**kwargs)
        _sys.stdout.write(_json.dumps({"status": "ok", "value": value}, default=repr))
    except BaseException as exc:
        _sys.stdout.write(_json.dumps({
            "status": "raised",
            "type": type(exc).__name__,
            "message": str(exc),
        }))

_run()
`

// buildHarness renders the harness for one candidate. The function name is
// validated as a bare identifier since it is spliced into source.
func buildHarness(source, funcName string) (string, error) {
	if err := validation.ValidateFunctionName(funcName); err != nil {
		return "", fmt.Errorf("building harness: %w", err)
	}
	return fmt.Sprintf(harnessTemplate, source, funcName), nil
}
