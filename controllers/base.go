package controllers

import (
	"github.com/beego/beego/v2/server/web"
)

type BaseController struct {
	web.Controller
}

type NestPreparer interface {
	NestPrepare()
}

type NestFinisher interface {
	NestFinish()
}

func (c *BaseController) Prepare() {
	if c.Data == nil {
		c.Data = make(map[interface{}]interface{})
	}

	c.setParams()
	c.Data["AppName"] = web.BConfig.AppName

	if app, ok := c.AppController.(NestPreparer); ok {
		app.NestPrepare()
	}
}

func (c *BaseController) Finish() {
	if app, ok := c.AppController.(NestFinisher); ok {
		app.NestFinish()
	}
}

func (c *BaseController) setParams() {
	params := make(map[string]string)
	c.Data["Params"] = params

	input, err := c.Input()
	if err != nil {
		return
	}

	for key, values := range input {
		if len(values) > 0 {
			params[key] = values[0]
		}
	}
}

// APIBaseController serves JSON only.
type APIBaseController struct {
	BaseController
}

func (c *APIBaseController) NestPrepare() {
	c.Ctx.Output.Header("Cache-Control", "no-store, must-revalidate")
}

// serveError writes {"error": msg} with the given status.
func (c *APIBaseController) serveError(status int, msg string) {
	c.Ctx.Output.SetStatus(status)
	c.Data["json"] = map[string]string{"error": msg}
	_ = c.ServeJSON()
}

type BreadCrumbs struct {
	Title    string
	Subtitle string
}
