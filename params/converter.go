package params

// converter turns validated raw params into native values.
type converter struct {
	definitions []paramDefinition
	registry    *Registry
}

// convert returns an entry for every declared param; absent params are nil.
func (c *converter) convert(params map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(c.definitions))
	for _, def := range c.definitions {
		raw, ok := params[def.name]
		if !ok {
			out[def.name] = nil
			continue
		}
		value, err := c.convertParam(def, raw)
		if err != nil {
			return nil, err
		}
		out[def.name] = value
	}
	return out, nil
}

// convertParam tries the declared type alternatives in order.
func (c *converter) convertParam(def paramDefinition, raw any) (any, error) {
	for _, alt := range def.alternatives {
		parser, err := c.registry.Lookup(alt.typ, alt.options)
		if err != nil {
			return nil, err
		}
		if value, err := parser.Parse(raw); err == nil {
			return value, nil
		}
	}
	return nil, &CannotBeParsedError{Param: def.name, Value: raw}
}
