package view

import "html/template"

func Logo() template.HTML {
	return template.HTML(`<a class="navbar-brand" href="#">RideShare Rwanda</a>`)
}
