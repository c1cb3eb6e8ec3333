package conllu_test

import (
	"fmt"
	"strings"

	"github.com/gregorycrane/tb2ud/pkg/conllu"
)

func ExampleRead() {
	doc := "# sent_id = xen.anab.1.1.1\n" +
		"# text = Δαρείου παῖδες\n" +
		"1\tΔαρείου\tΔαρεῖος\tNOUN\tn-s---mg-\t_\t2\tnmod\t_\t_\n" +
		"2\tπαῖδες\tπαῖς\tNOUN\tn-p---mn-\t_\t0\troot\t_\t_\n"

	trees, err := conllu.Read(strings.NewReader(doc))
	if err != nil {
		panic(err)
	}

	t := trees[0]
	fmt.Println("sentence:", t.ID)
	fmt.Println("tokens:", t.Len())
	fmt.Println("text:", t.Text())
	fmt.Println("root token:", t.Root().Children()[0].Form)
	// Output:
	// sentence: xen.anab.1.1.1
	// tokens: 2
	// text: Δαρείου παῖδες
	// root token: παῖδες
}
