// Package htmlscan indexes the elements of an HTML document by byte offset
// so callers can splice regions without re-serialising the markup. It is
// built on the golang.org/x/net/html tokenizer and tolerates unbalanced
// documents: unclosed elements are closed implicitly by an ancestor end tag
// or by the end of input.
package htmlscan
