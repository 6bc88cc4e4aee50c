// Package main provides the catalogdep CLI entry point: a small
// development/demo tool over the dependency engine, mirroring the
// teacher's cmd/nornicdb layout (root command plus version/serve/init
// style subcommands, cobra-driven flags).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/orneryd/catalogdep/pkg/address"
	"github.com/orneryd/catalogdep/pkg/catalog"
	"github.com/orneryd/catalogdep/pkg/classregistry"
	"github.com/orneryd/catalogdep/pkg/dropengine"
	"github.com/orneryd/catalogdep/pkg/edgestore"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "catalogdep",
		Short: "catalogdep - a relational-catalog object-dependency engine",
		Long: `catalogdep records and traverses inter-object dependency edges
(NORMAL/AUTO/INTERNAL/PIN) over a relational catalog and drives safe
cascading deletion: given a request to drop one or more objects, it
decides which other objects must also be removed, which transitively
pinned objects forbid the drop entirely, and in what order the
deletions must execute.`,
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("catalogdep v%s (%s)\n", version, commit)
		},
	})

	demoCmd := &cobra.Command{
		Use:   "demo",
		Short: "Run the view-on-table drop scenario against an in-memory catalog",
		Long: `demo builds a small synthetic catalog (a view depending on a
table, a column default, a composite type owning a relation, a cyclic
function pair, and a PIN'd built-in type) and runs performDeletion on
the table under RESTRICT and then under CASCADE, printing every
diagnostic notice along the way.`,
		RunE: runDemo,
	}
	rootCmd.AddCommand(demoCmd)

	describeCmd := &cobra.Command{
		Use:   "describe",
		Short: "Render the human-readable description of an object address",
		Long: `describe builds the same synthetic demo catalog as "demo" and
prints getObjectDescription(class, id, subid) against it, exercising
the Descriptor component standalone.`,
		RunE: runDescribe,
	}
	describeCmd.Flags().String("class", "relation", "ObjectClass name, e.g. relation, proc, type")
	describeCmd.Flags().Uint32("id", 1, "ObjectID")
	describeCmd.Flags().Uint32("sub", 0, "SubID (0 for the whole object)")
	rootCmd.AddCommand(describeCmd)

	graphCmd := &cobra.Command{
		Use:   "graph",
		Short: "Dump every recorded dependency edge in the demo catalog",
		Long: `graph builds the same synthetic demo catalog as "demo" and
dumps every DependencyEdge currently in its EdgeStore, rendering both
endpoints through the Descriptor, exercising EdgeStore.Dump for CLI
introspection.`,
		RunE: runGraph,
	}
	rootCmd.AddCommand(graphCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// printingLogger writes every diagnostic to stdout, prefixed by its
// severity, the way an interactive DROP statement echoes NOTICE/DEBUG
// output to the client.
type printingLogger struct{}

func (printingLogger) Log(sev dropengine.Severity, msg string) {
	fmt.Printf("  %-7s %s\n", sev, msg)
}

// demoObjects names the addresses openDemoCatalog wires up, reused by
// demo/describe/graph so all three subcommands describe the same
// synthetic catalog.
var (
	demoTable     = address.ObjectAddress{ClassID: address.ClassRelation, ObjectID: 1}
	demoView      = address.ObjectAddress{ClassID: address.ClassRelation, ObjectID: 2}
	demoColumn    = address.ObjectAddress{ClassID: address.ClassRelation, ObjectID: 1, SubID: 1}
	demoDefault   = address.ObjectAddress{ClassID: address.ClassDefault, ObjectID: 10}
	demoCompType  = address.ObjectAddress{ClassID: address.ClassType, ObjectID: 50}
	demoCompRel   = address.ObjectAddress{ClassID: address.ClassRelation, ObjectID: 51}
	demoFunc1     = address.ObjectAddress{ClassID: address.ClassProc, ObjectID: 100}
	demoFunc2     = address.ObjectAddress{ClassID: address.ClassProc, ObjectID: 101}
	demoBuiltinID = address.ObjectAddress{ClassID: address.ClassType, ObjectID: 23}
)

// openDemoCatalog builds the synthetic catalog shared by demo,
// describe, and graph: a view depending on a table (NORMAL), a column
// default (AUTO), a composite type owning a relation (INTERNAL), a
// cyclic function pair (NORMAL both ways), and a PIN'd built-in type.
func openDemoCatalog() (*catalog.Catalog, error) {
	classIDs := make(map[address.ObjectClass]classregistry.CatalogClassID, address.NumObjectClasses())
	for i := 0; i < address.NumObjectClasses(); i++ {
		classIDs[address.ObjectClass(i)] = classregistry.CatalogClassID(1000 + i)
	}

	cat, err := catalog.Open(catalog.DefaultConfig(), classIDs, demoResolver{}, nil)
	if err != nil {
		return nil, fmt.Errorf("opening catalog: %w", err)
	}

	dropped := func(a address.ObjectAddress) error {
		fmt.Printf("  DROP    %s\n", a)
		return nil
	}
	cat.Registry.RegisterRelationDestructors(classregistry.RelationDestructors{
		DropHeap:   dropped,
		DropColumn: dropped,
		DropIndex:  dropped,
		IsIndex:    func(address.ObjectID) bool { return false },
	})
	for _, c := range []address.ObjectClass{
		address.ClassProc, address.ClassType, address.ClassDefault,
	} {
		cat.Registry.RegisterDestructor(c, dropped)
	}
	cat.Engine.Logger = printingLogger{}

	edges := []struct {
		dependent address.ObjectAddress
		refs      []address.ObjectAddress
		kind      edgestore.DependencyType
	}{
		{demoView, []address.ObjectAddress{demoTable}, edgestore.Normal},
		{demoDefault, []address.ObjectAddress{demoColumn}, edgestore.Auto},
		{demoCompRel, []address.ObjectAddress{demoCompType}, edgestore.Internal},
		{demoFunc1, []address.ObjectAddress{demoFunc2}, edgestore.Normal},
		{demoFunc2, []address.ObjectAddress{demoFunc1}, edgestore.Normal},
		{address.ObjectAddress{}, []address.ObjectAddress{demoBuiltinID}, edgestore.Pin},
	}
	for _, e := range edges {
		if err := cat.Store.InsertMany(e.dependent, e.refs, e.kind); err != nil {
			cat.Close()
			return nil, err
		}
	}
	return cat, nil
}

func runDemo(cmd *cobra.Command, args []string) error {
	cat, err := openDemoCatalog()
	if err != nil {
		return err
	}
	defer cat.Close()

	fmt.Println("scenario 1: view depends on table (NORMAL)")
	fmt.Println("performDeletion(table, RESTRICT):")
	if err := cat.Engine.PerformDeletion(demoTable, dropengine.Restrict); err != nil {
		fmt.Printf("  ERROR   %v\n", err)
	}
	fmt.Println("performDeletion(table, CASCADE):")
	if err := cat.Engine.PerformDeletion(demoTable, dropengine.Cascade); err != nil {
		return err
	}

	fmt.Printf("\nstats: %+v\n", *cat.Engine.Stats)
	return nil
}

// runDescribe implements the `describe` subcommand: resolves --class
// to an address.ObjectClass by name and prints getObjectDescription
// for (class, id, sub) against the demo catalog's resolver.
func runDescribe(cmd *cobra.Command, args []string) error {
	className, _ := cmd.Flags().GetString("class")
	id, _ := cmd.Flags().GetUint32("id")
	sub, _ := cmd.Flags().GetUint32("sub")

	class, err := parseClass(className)
	if err != nil {
		return err
	}

	cat, err := openDemoCatalog()
	if err != nil {
		return err
	}
	defer cat.Close()

	addr := address.ObjectAddress{ClassID: class, ObjectID: address.ObjectID(id), SubID: address.SubID(sub)}
	desc, err := cat.Engine.GetObjectDescription(addr)
	if err != nil {
		return fmt.Errorf("describing %s: %w", addr, err)
	}
	fmt.Println(desc)
	return nil
}

// runGraph implements the `graph` subcommand: dumps every edge in the
// demo catalog's EdgeStore, rendering both endpoints through the
// Descriptor.
func runGraph(cmd *cobra.Command, args []string) error {
	cat, err := openDemoCatalog()
	if err != nil {
		return err
	}
	defer cat.Close()

	edges, err := cat.Store.Dump()
	if err != nil {
		return fmt.Errorf("dumping edge store: %w", err)
	}
	for _, e := range edges {
		depDesc, err := cat.Engine.GetObjectDescription(e.Dependent)
		if err != nil {
			depDesc = e.Dependent.String()
		}
		refDesc, err := cat.Engine.GetObjectDescription(e.Referenced)
		if err != nil {
			refDesc = e.Referenced.String()
		}
		fmt.Printf("%-9s %s -> %s\n", e.Kind, depDesc, refDesc)
	}
	return nil
}

// parseClass resolves a class name (e.g. "relation", "proc") to its
// address.ObjectClass, matching String()'s rendering of each member.
func parseClass(name string) (address.ObjectClass, error) {
	for i := 0; i < address.NumObjectClasses(); i++ {
		c := address.ObjectClass(i)
		if c.String() == name {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unrecognized object class %q", name)
}

type demoResolver struct{}

func (demoResolver) RelationName(id address.ObjectID) (string, string, bool, bool) {
	return "public", fmt.Sprintf("rel_%d", id), true, true
}
func (demoResolver) ColumnName(relID address.ObjectID, attNo address.SubID) (string, bool) {
	return fmt.Sprintf("col_%d", attNo), true
}
func (demoResolver) ProcName(id address.ObjectID) (string, bool) { return fmt.Sprintf("proc_%d", id), true }
func (demoResolver) TypeName(id address.ObjectID) (string, bool) { return fmt.Sprintf("type_%d", id), true }
func (demoResolver) OperatorName(id address.ObjectID) (string, bool) {
	return fmt.Sprintf("op_%d", id), true
}
func (demoResolver) OpClassName(id address.ObjectID) (string, string, bool) {
	return fmt.Sprintf("opclass_%d", id), "btree", true
}
func (demoResolver) GenericName(class address.ObjectClass, id address.ObjectID) (string, bool) {
	return fmt.Sprintf("%s_%d", class, id), true
}
