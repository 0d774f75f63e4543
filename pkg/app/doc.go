// Package app ties the engine together: an App mounts a root component,
// renders it into a dom.Document and routes event messages back to the
// components that bound them.
//
// # Rendering
//
// Render is a full pass: the root is expanded from the registry, the
// result is reconciled against the last committed snapshot, and on success
// it becomes the new snapshot. Registry entries for components that no
// longer appear are then removed, unless WithCollect(false) is given.
//
// # Messages
//
// Dispatch is synchronous: it looks up the component by Path, calls its
// Update, then renders. Run owns rendering for long-lived apps: it renders
// once, then handles messages queued with Post one at a time. DOM
// listeners use whichever mode is active.
//
//	a := app.New(tree.FactoryOf("Counter", examples.NewCounter), doc)
//	go a.Run(ctx)
//	_ = a.Post(path.New(), examples.Add)
//
// A panic inside a component while Run is handling a message is recovered,
// logged with its stack and counted; the component's handle is poisoned
// and ignores further messages.
package app
