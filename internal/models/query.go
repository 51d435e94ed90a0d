package models

import (
	"net/url"
	"strconv"
	"strings"
)

// QueryParams are the query string parameters of one upstream page request.
type QueryParams struct {
	DateFrom string
	DateTo   string
	Modality string
	Page     int
	PageSize int
	Extra    map[string]string
}

// Values renders the parameters with upstream names. Empty values are omitted.
func (p QueryParams) Values() url.Values {
	v := url.Values{}
	set := func(key, value string) {
		value = strings.TrimSpace(value)
		if value != "" {
			v.Set(key, value)
		}
	}

	set("dataInicial", p.DateFrom)
	set("dataFinal", p.DateTo)
	set("codigoModalidadeContratacao", p.Modality)
	if p.Page > 0 {
		set("pagina", strconv.Itoa(p.Page))
	}
	if p.PageSize > 0 {
		set("tamanhoPagina", strconv.Itoa(p.PageSize))
	}
	for key, value := range p.Extra {
		set(key, value)
	}

	return v
}

// Clone returns a copy that does not share the Extra map.
func (p QueryParams) Clone() QueryParams {
	c := p
	if p.Extra != nil {
		c.Extra = make(map[string]string, len(p.Extra))
		for k, v := range p.Extra {
			c.Extra[k] = v
		}
	}
	return c
}
