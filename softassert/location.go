package softassert

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
)

// Location is the source position a failed expectation is attributed to.
type Location struct {
	File     string
	Line     int
	Function string
}

func (l Location) String() string {
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// Caller returns the location skip frames above the function calling Caller.
func Caller(skip int) Location {
	pc, file, line, ok := runtime.Caller(skip + 1)
	if !ok {
		return Location{File: "unknown", Function: "unknown"}
	}
	loc := Location{File: file, Line: line, Function: "unknown"}
	if fn := runtime.FuncForPC(pc); fn != nil {
		loc.Function = shortFuncName(fn.Name())
	}
	return loc
}

// shortFuncName trims the import path: "github.com/a/b/pkg.(*T).M" -> "(*T).M".
func shortFuncName(name string) string {
	name = name[strings.LastIndex(name, "/")+1:]
	if i := strings.Index(name, "."); i >= 0 {
		name = name[i+1:]
	}
	return name
}

func (l Location) base() string {
	return filepath.Base(l.File)
}
