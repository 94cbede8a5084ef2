package toolbar

// Toolbar panel currently presented.
// ENUM(actions, anchorForm)
type Mode int

// Formatting operations executed by the host against current selection.
// ENUM(bold, italic, underline, strikethrough, unlink, createLink)
type Command string

//go:generate go tool go-enum --marshal --names --values
