// Package journal owns the journal entry model and the file-creation
// transaction.
//
// An entry is a UTF-8 markdown file with a leading `---` delimited metadata
// block carrying id, title, created, and updated fields. Exactly one of
// {plaintext, encrypted} describes an entry's on-disk representation at any
// time; every write path here stages content privately and publishes with a
// single atomic rename so no half-written state is ever visible at the
// target path.
package journal
