package argnorm

// Kind is the declared type of a tool parameter.
type Kind int

const (
	KindString Kind = iota
	KindInteger
	KindNumber
	KindBoolean
	KindStringList
	KindPathList // string list cleaned into existing directories
)

func (k Kind) String() string {
	switch k {
	case KindInteger:
		return "integer"
	case KindNumber:
		return "number"
	case KindBoolean:
		return "boolean"
	case KindStringList:
		return "string list"
	case KindPathList:
		return "path list"
	default:
		return "string"
	}
}

// Param declares one tool parameter. Min and Max are inclusive and only
// apply to KindInteger.
type Param struct {
	Name     string
	Kind     Kind
	Required bool
	Min      *int
	Max      *int
	Default  any
	Enum     []string
}

// Spec is the parameter table for one tool.
type Spec struct {
	Tool   string
	Params []Param
}

// Bound is a convenience for building Param.Min/Max.
func Bound(v int) *int { return &v }
