package website

import (
	"git.inkwell.blog/inkwell/inkwell/src/blogdata"
	"git.inkwell.blog/inkwell/inkwell/src/templates"
)

// Reads the named fields from the posted form so a failed submission can be
// shown again with what the user typed. Passwords are never echoed back.
// A body that cannot be parsed comes back as a form error.
func readForm(c *RequestContext, names ...string) templates.Form {
	form := templates.Form{Values: make(map[string]string, len(names))}
	values, err := c.GetFormValues()
	if err != nil {
		c.Logger.Warn().Err(err).Msg("failed to parse form")
		form.Errors = append(form.Errors, unreadableFormMessage)
	}
	for _, name := range names {
		form.Values[name] = values.Get(name)
	}
	return form
}

const unreadableFormMessage = "We could not read the submitted form."

func withErrors(form templates.Form, errs blogdata.ValidationErrors) templates.Form {
	form.Errors = append(form.Errors, errs...)
	return form
}
