package nm

import "strings"

// ScopeSeparator separates C++ scope components.
const ScopeSeparator = "::"

// specialPrefixes are compiler-generated descriptions nm prints before the
// entity they belong to. They are kept on the last component so that, for
// example, a vtable is grouped with its class.
var specialPrefixes = []string{
	"construction vtable for ",
	"covariant return thunk to ",
	"guard variable for ",
	"non-virtual thunk to ",
	"TLS init function for ",
	"TLS wrapper function for ",
	"transaction clone for ",
	"typeinfo name for ",
	"typeinfo for ",
	"virtual thunk to ",
	"vtable for ",
	"VTT for ",
}

// SplitScope decomposes a demangled name into scope components. Separators
// nested inside template arguments, parameter lists or array bounds do not
// split, and a leading return type is dropped:
//
//	"std::vector<a::b>::push_back(a::b const&)" -> ["std", "vector<a::b>", "push_back(a::b const&)"]
//	"void filament::Engine::flush()"             -> ["filament", "Engine", "flush()"]
//	"vtable for filament::Engine"                -> ["filament", "vtable for Engine"]
//
// Names without a top-level separator, mangled names included, are returned
// as a single component.
func SplitScope(name string) []string {
	prefix := descriptionPrefix(name)
	name = name[len(prefix):]

	name = stripReturnType(name)

	var parts []string
	depth, start := 0, 0
	for i := 0; i < len(name); i++ {
		if isOperatorAt(name, i) {
			i = skipOperator(name, i) - 1
			continue
		}
		switch name[i] {
		case '<', '(', '[':
			depth++
		case '>', ')', ']':
			if depth > 0 {
				depth--
			}
		case ':':
			if depth == 0 && i+1 < len(name) && name[i+1] == ':' {
				if i > start {
					parts = append(parts, name[start:i])
				}
				start = i + 2
				i++
			}
		}
	}
	if start < len(name) {
		parts = append(parts, name[start:])
	}

	if len(parts) == 0 {
		return []string{prefix + name}
	}
	parts[len(parts)-1] = prefix + parts[len(parts)-1]
	return parts
}

// descriptionPrefix returns the compiler-generated description at the start
// of name, or "". Besides the known forms, any leading "<words> for " with no
// scope, template or parameter syntax counts, which covers numbered forms
// such as "reference temporary #0 for ".
func descriptionPrefix(name string) string {
	for _, p := range specialPrefixes {
		if strings.HasPrefix(name, p) {
			return p
		}
	}
	i := strings.Index(name, " for ")
	if i <= 0 || strings.ContainsAny(name[:i], ":<>()[]") {
		return ""
	}
	return name[:i+len(" for ")]
}

// stripReturnType removes "ret " from "ret scope::f(args)". Only a space at
// depth zero before the first top-level '(' counts. Spaces inside operator
// names ("operator new", "operator unsigned int") are part of the name.
func stripReturnType(name string) string {
	depth := 0
	cut := -1
	inOperator := false
	for i := 0; i < len(name); i++ {
		if isOperatorAt(name, i) {
			inOperator = true
			i = skipOperator(name, i) - 1
			continue
		}
		switch name[i] {
		case '<', '[':
			depth++
		case '>', ']':
			if depth > 0 {
				depth--
			}
		case '(':
			if depth == 0 {
				if cut < 0 {
					return name
				}
				return name[cut+1:]
			}
			depth++
		case ')':
			if depth > 0 {
				depth--
			}
		case ' ':
			if depth == 0 && !inOperator {
				cut = i
			}
		case ':':
			inOperator = false
		}
	}
	return name
}

const operatorKeyword = "operator"

// isOperatorAt reports whether an operator name starts at name[i].
func isOperatorAt(name string, i int) bool {
	if !strings.HasPrefix(name[i:], operatorKeyword) {
		return false
	}
	if i > 0 && name[i-1] != ':' && name[i-1] != ' ' {
		return false
	}
	rest := name[i+len(operatorKeyword):]
	if rest == "" {
		return false
	}
	c := rest[0]
	return c == ' ' || strings.IndexByte(operatorChars, c) >= 0 || c == '(' || c == '['
}

const operatorChars = "<>=!+-*/%^&|~,"

// skipOperator returns the index just past the operator symbol starting at
// name[i], so that "operator<", "operator()" and "operator->" do not unbalance
// the bracket depth.
func skipOperator(name string, i int) int {
	j := i + len(operatorKeyword)
	switch {
	case strings.HasPrefix(name[j:], "()"), strings.HasPrefix(name[j:], "[]"):
		return j + 2
	}
	for j < len(name) && strings.IndexByte(operatorChars, name[j]) >= 0 {
		j++
	}
	return j
}
