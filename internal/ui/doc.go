// Package ui contains the Bubble Tea program that acts as the billboard panel.
// The Model focuses on message orchestration; dedicated helpers own the
// sliders, the port plumbing, the sandbox shape prompt and rendering.
//
// Message flow:
//   - Bubble Tea invokes Model.Update with incoming messages. While the shape
//     prompt is open, key presses go to the prompt first. Everything else is
//     routed through a typed handler registry so each tea.Msg is handled by a
//     focused function.
//   - waitForPortMessage blocks on the transport port and turns each inbound
//     message into a portMessageMsg; the handler applies it to the stores and
//     re-arms the wait.
//   - Outbound sends and the capture itself run as tea.Cmd values so a slow
//     port never stalls the program loop.
//
// State ownership:
//   - Rotation, selection and theme live in internal/state stores. The model
//     subscribes to them and rebuilds derived view state (the preview sketch,
//     the active style set) when they change.
//   - The capture registry holds the function that renders the preview and
//     sends add-capture; NewModel registers it once.
//
// Host controls are optional. The sandbox attaches them so the in-memory
// document can be driven from the panel; attached panels run without.
package ui
