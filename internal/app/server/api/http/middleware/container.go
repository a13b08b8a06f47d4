package middleware

import "github.com/danielgtaylor/huma/v2"

// Container collects middlewares for the next handler being built.
type Container struct {
	mws huma.Middlewares
}

func NewContainer() *Container {
	return &Container{}
}

func (c *Container) Add(mw func(huma.Context, func(huma.Context))) {
	c.mws = append(c.mws, mw)
}

// GetAllAndClear hands over the collected middlewares and starts a new set.
func (c *Container) GetAllAndClear() huma.Middlewares {
	mws := c.mws
	c.mws = nil
	if mws == nil {
		return huma.Middlewares{}
	}
	return mws
}
