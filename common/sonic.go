package common

import (
	"github.com/bytedance/sonic"
)

// SonicCfg is used for every report and sample encoding so output stays
// compact and map keys keep the order they were decoded in.
var SonicCfg sonic.API

func init() {
	SonicCfg = sonic.Config{
		CopyString:              true,
		NoQuoteTextMarshaler:    true,
		NoValidateJSONMarshaler: true,
		NoValidateJSONSkip:      true,
		EscapeHTML:              false,
		SortMapKeys:             true,
		CompactMarshaler:        true,
		ValidateString:          false,
		UseInt64:                true,
	}.Froze()
}
