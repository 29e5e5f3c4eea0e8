// Package umbra holds the working state of a CSS box-shadow designer.
//
// A Store keeps an ordered list of shadow layers, the selected layer and the
// global shape/size/color settings. Collaborators mutate it through commands
// (AddLayer, SetSelectedBlur, ImportDocument, ...) and re-read the derived
// queries (Layers, CurrentLayer, CSSDeclaration) to render.
//
// Key features:
//   - Monotonic layer ids that are never reused
//   - Atomic state replacement on import; a rejected document changes nothing
//   - Interchange documents in JSON, JSONC, YAML and TOML
//   - Import from files, in-memory blobs or S3 objects, and live reload on change
//   - Change notification via subscriptions
package umbra
