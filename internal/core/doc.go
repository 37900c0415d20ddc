// Package core implements program dispatch for runcurry.
//
// A run is classified into one of three source kinds:
//
//   - SourceFile: a file carrying a native Curry suffix, loaded in place.
//   - SourceScript: an executable script whose '#' lines are stripped before
//     loading. Scripts containing the JIT directive are compiled once into a
//     sibling ".bin" artifact and reused while the artifact is newer than the
//     script.
//   - SourceStdin: program text read from standard input.
//
// Every external step (load and evaluate, save, clean, run) goes through the
// Toolchain interface and reports a plain process exit code. Temporary program
// files are allocated with TempNames and removed on every exit path.
package core
