package querysql

import "github.com/docql/docql/internal/expr"

// opCategory selects the code-generation shape for an operator.
type opCategory int

const (
	catRelational opCategory = iota // <getter> <sqlOp> <literal>
	catType
	catExists
	catMembership
	catSize
	catContainsAll
	catContainsAny
	catElemMatch
	catFTSMatch
)

// operator is one entry of the closed operator set. sqlOp carries its
// surrounding spaces so emission is plain concatenation.
type operator struct {
	name  string
	sqlOp string
	cat   opCategory
}

// operators maps each recognized $-key to its SQL operator and
// dispatch category. The set is closed; anything else is an error.
var operators = map[string]operator{
	"$eq":   {"$eq", " = ", catRelational},
	"$ne":   {"$ne", " <> ", catRelational},
	"$lt":   {"$lt", " < ", catRelational},
	"$lte":  {"$lte", " <= ", catRelational},
	"$le":   {"$le", " <= ", catRelational},
	"$gt":   {"$gt", " > ", catRelational},
	"$gte":  {"$gte", " >= ", catRelational},
	"$ge":   {"$ge", " >= ", catRelational},
	"$like": {"$like", " LIKE ", catRelational},

	"$type":   {"$type", "", catType},
	"$exists": {"$exists", "", catExists},

	"$in":  {"$in", " IN ", catMembership},
	"$nin": {"$nin", " NOT IN ", catMembership},

	"$size": {"$size", "", catSize},
	"$all":  {"$all", "", catContainsAll},
	"$any":  {"$any", "", catContainsAny},

	"$elemMatch": {"$elemMatch", "", catElemMatch},
	"$match":     {"$match", " MATCH ", catFTSMatch},
}

// typeNames is the closed list of document value type names accepted by
// $type; the emitted code is the index into this list.
var typeNames = []string{"null", "boolean", "number", "string", "blob", "array", "object"}

// typeCodeOf resolves a $type payload to its numeric type code.
func typeCodeOf(v expr.Value) (int, error) {
	name, ok := v.(expr.String)
	if !ok {
		return 0, invalidf("$type requires a type name string, got %T", v)
	}
	for i, n := range typeNames {
		if n == string(name) {
			return i, nil
		}
	}
	return 0, invalidf("unknown type name %q", string(name))
}

// resolveOperator determines the relational operator for a term value.
//
// If value is an object carrying a special key, that key is peeled off
// and its payload becomes the operand; any remaining keys of the object
// are ignored. If value is an object without a special key, the term is
// a sub-property predicate and isOp is false. Any other value defaults
// to $eq with the value itself as operand.
func resolveOperator(value expr.Value) (op operator, payload expr.Value, isOp bool, err error) {
	if obj, isObject := value.(expr.Object); isObject {
		key, val, special := obj.Special()
		if !special {
			return operator{}, nil, false, nil
		}
		rel, known := operators[key]
		if !known {
			return operator{}, nil, false, invalidf("unknown operator %q", key)
		}
		return rel, val, true, nil
	}
	return operators["$eq"], value, true, nil
}
