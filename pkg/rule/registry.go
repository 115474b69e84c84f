package rule

import "github.com/waferstrat/sampler/pkg/registry"

// Builtins holds the rule plugins registered at process start. Each
// built-in rule registers itself via init().
var Builtins = registry.New[Rule]("rule")
