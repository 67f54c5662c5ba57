package rewriter

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jupyter/extension-builder/internal/compilation"
	"github.com/jupyter/extension-builder/internal/vpath"
)

// contextModuleTemplate is the fixed wrapper synthesized for directory-glob
// (context) requires. Placeholders, in order: JSON map literal of
// request -> semver path, require symbol, quoted define path. The
// "webpackContext" identifier is renamed to the context ctor name afterwards.
const contextModuleTemplate = `var map = %s;
function webpackContext(req) {
  var id = map[req];
  if (!id) {
    var e = new Error("Cannot find module '" + req + "'");
    e.code = "MODULE_NOT_FOUND";
    throw e;
  }
  return %s(id);
}
function webpackContextResolve(req) {
  var id = map[req];
  if (!id) {
    var e = new Error("Cannot find module '" + req + "'");
    e.code = "MODULE_NOT_FOUND";
    throw e;
  }
  return id;
}
webpackContext.keys = function() { return Object.keys(map); };
webpackContext.resolve = webpackContextResolve;
webpackContext.id = %q;
module.exports = webpackContext;`

// renderContextModule synthesizes a context module's body from scratch
// (spec §4.3): a sorted request -> semver-path mapping, plus a fixed
// wrapper exposing keys(), resolve(req), and the call form itself.
func renderContextModule(comp compilation.Compilation, mod compilation.Module, resolver Resolver, cfg Config) (string, []string, error) {
	keys := sortedKeys(mod.ContextEntries)

	mapLiteral := make(map[string]string, len(keys))
	var requirePaths []string
	for _, req := range keys {
		targetID := mod.ContextEntries[req]
		target, ok := comp.ModuleByID(targetID)
		if !ok {
			return "", nil, fmt.Errorf("context entry %q references unknown module id %d", req, targetID)
		}
		semverPath, err := resolver.SemverPath(mod.SourcePath, target.SourcePath)
		if err != nil {
			return "", nil, err
		}
		s := vpath.Format(semverPath)
		mapLiteral[req] = s
		requirePaths = append(requirePaths, s)
	}

	mapJSON, err := json.Marshal(mapLiteral)
	if err != nil {
		return "", nil, err
	}

	definePath, err := resolver.VersionPath(mod.SourcePath)
	if err != nil {
		return "", nil, err
	}

	body := fmt.Sprintf(contextModuleTemplate, mapJSON, "__internalRequire", vpath.Format(definePath))
	body = strings.ReplaceAll(body, "webpackContext", cfg.contextCtorName())
	body = strings.ReplaceAll(body, "__internalRequire", cfg.requireSymbol())
	return body, requirePaths, nil
}
