package a

import "html/template"

type name string

func greet(firstName string) template.HTML {
	return template.HTML("Welcome, " + firstName) // want `conversion to template.HTML disables escaping`
}

func script(code string) template.JS {
	return template.JS(code) // want `conversion to template.JS disables escaping`
}

func plain(firstName string) name {
	return name(firstName)
}

func escaped(firstName string) string {
	return template.HTMLEscapeString(firstName)
}
