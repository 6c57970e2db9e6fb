// Package dom is the live, mutable document tree that rask mounts into.
//
// It models the small part of a browser DOM the reconciler needs: element
// and text nodes linked through parent and sibling pointers, ordered
// attributes, and event listeners with capture, target and bubble phases.
// Every structural, attribute or text change increments the owning
// Document's mutation counter, which tests use to prove that a patch only
// touched what it had to.
package dom
