package scan_test

import (
	"context"
	"strings"
	"testing/fstest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/chazu/ansigraph/pkg/artifact"
	"github.com/chazu/ansigraph/pkg/extract"
	"github.com/chazu/ansigraph/pkg/resolve"
	"github.com/chazu/ansigraph/pkg/scan"
)

// file is a MapFS shorthand
func file(content string) *fstest.MapFile {
	return &fstest.MapFile{Data: []byte(content)}
}

// exampleRepo is an Ansible tree exercising every edge kind, one
// dangling reference, one malformed file, one unclassifiable file, and
// a role dependency cycle (web -> common -> web).
func exampleRepo() fstest.MapFS {
	return fstest.MapFS{
		"site.yml": file(`
- name: Configure everything
  hosts: all
  vars_files:
    - group_vars.yml
  roles:
    - web
    - role: missing_role
  tasks:
    - include_tasks: extra.yml
`),
		"extra.yml":      file("- name: noop\n  debug:\n    msg: hi\n"),
		"group_vars.yml": file("ntp_server: pool.ntp.org\n"),
		"roles/web/tasks/main.yml": file(`
- name: Install
  package:
    name: nginx
- include_tasks: setup.yml
`),
		"roles/web/tasks/setup.yml":   file("- debug:\n    msg: setting up\n"),
		"roles/web/handlers/main.yml": file("- name: restart\n  service:\n    name: nginx\n"),
		"roles/web/vars/main.yml":     file("port: 80\n"),
		"roles/web/meta/main.yml":     file("dependencies:\n  - common\n"),
		"roles/common/tasks/main.yml": file("- debug:\n    msg: common\n"),
		"roles/common/meta/main.yml":  file("dependencies:\n  - role: web\n"),
		"roles/web/weird/probe.yml":   file("not: classified\n"),
		"broken.yml":                  file("key: [unclosed\n"),
		"roles/web/templates/a.yml":   file("skipped: entirely\n"),
	}
}

var _ = Describe("Scan pipeline", func() {
	ctx := context.Background()

	newScanner := func(fsys fstest.MapFS, opts scan.Options) *scan.Scanner {
		return scan.New(fsys, "example-repo", nil, opts)
	}

	It("builds the full dependency graph of the example repo", func() {
		g, report, err := newScanner(exampleRepo(), scan.DefaultOptions()).Scan(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(g.Validate()).To(Succeed())

		By("resolving playbook-level references")
		Expect(g.HasEdge("site.yml", "roles/web", extract.RefRole)).To(BeTrue())
		Expect(g.HasEdge("site.yml", "group_vars.yml", extract.RefVarsFile)).To(BeTrue())
		Expect(g.HasEdge("site.yml", "extra.yml", extract.RefTaskInclude)).To(BeTrue())

		By("resolving sibling task includes")
		Expect(g.HasEdge("roles/web/tasks/main.yml", "roles/web/tasks/setup.yml", extract.RefTaskInclude)).To(BeTrue())

		By("attaching role dependencies to role nodes")
		Expect(g.HasEdge("roles/web", "roles/common", extract.RefRole)).To(BeTrue())
		Expect(g.HasEdge("roles/common", "roles/web", extract.RefRole)).To(BeTrue())

		By("linking roles to their entry files")
		Expect(g.HasEdge("roles/web", "roles/web/tasks/main.yml", extract.RefTaskInclude)).To(BeTrue())
		Expect(g.HasEdge("roles/web", "roles/web/handlers/main.yml", extract.RefHandlerInclude)).To(BeTrue())
		Expect(g.HasEdge("roles/web", "roles/web/vars/main.yml", extract.RefVarsFile)).To(BeTrue())

		By("recording the role dependency cycle as metadata")
		Expect(g.Cycles).To(HaveLen(1))
		Expect(g.Cycles[0]).To(ContainElements("roles/web", "roles/common"))

		By("reporting the dangling role reference exactly once")
		count := 0
		for _, f := range report.Dangling {
			if f.Ref.Target == "missing_role" {
				count++
				Expect(f.Reason).To(Equal(resolve.ReasonNotFound))
			}
		}
		Expect(count).To(Equal(1))
		_, exists := g.Node("roles/missing_role")
		Expect(exists).To(BeFalse(), "a dangling reference must not create a node")

		By("downgrading the malformed file to a warning")
		Expect(report.Warnings).To(ContainElement(HaveField("Path", "broken.yml")))
		Expect(report.Warnings).To(ContainElement(HaveField("Reason", scan.ReasonMalformed)))

		By("warning about the unclassifiable YAML file")
		Expect(report.Warnings).To(ContainElement(And(
			HaveField("Path", "roles/web/weird/probe.yml"),
			HaveField("Reason", scan.ReasonUnclassifiable),
		)))

		By("never descending into skipped directories")
		for _, a := range report.Inventory {
			Expect(a.Path).NotTo(ContainSubstring("templates/"))
		}
	})

	It("is idempotent across repeated scans of an unchanged tree", func() {
		g1, _, err := newScanner(exampleRepo(), scan.DefaultOptions()).Scan(ctx)
		Expect(err).NotTo(HaveOccurred())
		g2, _, err := newScanner(exampleRepo(), scan.DefaultOptions()).Scan(ctx)
		Expect(err).NotTo(HaveOccurred())

		Expect(g2.Nodes).To(Equal(g1.Nodes))
		Expect(g2.Edges).To(Equal(g1.Edges))
		Expect(g2.ComputeHash()).To(Equal(g1.ComputeHash()))
	})

	It("is idempotent regardless of parse parallelism", func() {
		serial := scan.DefaultOptions()
		serial.Parallelism = 1
		wide := scan.DefaultOptions()
		wide.Parallelism = 16

		g1, _, err := newScanner(exampleRepo(), serial).Scan(ctx)
		Expect(err).NotTo(HaveOccurred())
		g2, _, err := newScanner(exampleRepo(), wide).Scan(ctx)
		Expect(err).NotTo(HaveOccurred())

		Expect(g2.ComputeHash()).To(Equal(g1.ComputeHash()))
	})

	It("filters artifact kinds when asked", func() {
		opts := scan.DefaultOptions()
		opts.Kinds = []artifact.Kind{artifact.KindPlaybook, artifact.KindRole}

		g, _, err := newScanner(exampleRepo(), opts).Scan(ctx)
		Expect(err).NotTo(HaveOccurred())

		for _, n := range g.Nodes {
			Expect(n.Kind).To(BeElementOf(artifact.KindPlaybook, artifact.KindRole))
		}
		Expect(g.HasEdge("site.yml", "roles/web", extract.RefRole)).To(BeTrue())
	})

	It("keeps every successfully resolved target in the node set", func() {
		g, report, err := newScanner(exampleRepo(), scan.DefaultOptions()).Scan(ctx)
		Expect(err).NotTo(HaveOccurred())

		dangling := map[string]bool{}
		for _, f := range report.Dangling {
			dangling[f.Ref.Target] = true
		}
		for _, e := range g.Edges {
			_, ok := g.Node(e.Target)
			Expect(ok).To(BeTrue(), "edge target %s missing from node set", e.Target)
		}
	})

	It("skips templated reference targets without reporting them dangling", func() {
		fsys := fstest.MapFS{
			"site.yml": file(`
- hosts: all
  tasks:
    - include_tasks: "{{ distro }}.yml"
`),
		}
		g, report, err := newScanner(fsys, scan.DefaultOptions()).Scan(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(g.Edges).To(BeEmpty())
		Expect(report.Dangling).To(BeEmpty())
	})

	It("produces a readable summary", func() {
		_, report, err := newScanner(exampleRepo(), scan.DefaultOptions()).Scan(ctx)
		Expect(err).NotTo(HaveOccurred())

		var sb strings.Builder
		report.Summary(&sb)
		Expect(sb.String()).To(ContainSubstring("missing_role"))
		Expect(sb.String()).To(ContainSubstring("broken.yml"))
	})
})
