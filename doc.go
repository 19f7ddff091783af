/*
Package inklr is an incremental GLR-style LR(1) parse engine.

inklr interprets pre-compiled parse tables and produces compact flat
tree buffers. It supports stack splitting for ambiguous grammars and
for error recovery, and tracks lookahead and context so that parse
results stay deterministic under incremental reparsing. Package
structure is as follows:

■ lr: Package lr defines the bit-packed action layout and the packed
parse-table format the engine interprets, together with a builder to
assemble tables in code.

■ glr: Package glr implements the engine proper: the parse stack with
copy-on-split buffer sharing, the chunked input stream, the tokenizer
cascade, and a driver interleaving multiple stacks.

■ tree: Package tree holds node types and the buffer-backed syntax
trees built from a stack's output buffer.

The base package contains the input abstraction and data types which
are used throughout all the other packages.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>
*/
package inklr
