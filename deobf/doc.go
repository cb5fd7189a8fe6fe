// Package deobf provides a virtual repository that serves deobfuscated variants of
// artifacts on demand. It takes part in a [repository.Chain] and only answers
// requests whose version is synthetic (see package mapping):
//
//	FindFile(net.mc:client:1.20.1_mapped_official_2023.10@jar)
//		↓
//	mapping.Decode → {official, 2023.10, client}, original net.mc:client:1.20.1@jar
//		↓
//	graph.Resolver.ResolveGraph(configuration)   (once per Repository)
//		↓
//	first declared module matching net.mc:client:1.20.1, first existing artifact file
//		↓
//	transform.Transformer.Binary(original file, mapping) → file in the repository sink
//
// Everything outside of this contract (plain versions, non jar extensions, sources,
// undeclared originals) is answered with [repository.ErrNotFound] so that the chain
// defers to the next repository. Decoding, resolution and transformation failures are
// returned as errors.
package deobf
